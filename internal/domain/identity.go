package domain

import "context"

// AuthSource identifies which resolution strategy produced an identity.
// Strategies are evaluated once per request, in this order.
type AuthSource int

const (
	SourceNone AuthSource = iota
	SourceSessionToken
	SourceHeader
	SourceBody
)

func (s AuthSource) String() string {
	switch s {
	case SourceSessionToken:
		return "session_token"
	case SourceHeader:
		return "header"
	case SourceBody:
		return "body"
	default:
		return "none"
	}
}

// ResolvedIdentity is the typed outcome of request authentication. A zero
// value (Source == SourceNone) means unauthenticated.
type ResolvedIdentity struct {
	CustomerID string
	Shop       string
	UserID     string
	Source     AuthSource

	// Session is set when the identity came from an exchanged session
	// token; downstream Admin API calls prefer it over the static token.
	Session *APISession
}

// Authenticated reports whether a customer was resolved.
func (id ResolvedIdentity) Authenticated() bool {
	return id.Source != SourceNone && id.CustomerID != ""
}

type contextKey string

const (
	identityKey contextKey = "resolved_identity"
	sessionKey  contextKey = "api_session"
)

// WithIdentity attaches the resolved identity to the request context.
func WithIdentity(ctx context.Context, id ResolvedIdentity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the resolved identity, or a zero value when
// the request is unauthenticated.
func IdentityFromContext(ctx context.Context) ResolvedIdentity {
	if id, ok := ctx.Value(identityKey).(ResolvedIdentity); ok {
		return id
	}
	return ResolvedIdentity{}
}

// WithAPISession attaches a request-scoped Admin API session.
func WithAPISession(ctx context.Context, s *APISession) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// APISessionFromContext returns the request-scoped Admin API session, or
// nil when the caller should fall back to the static configured token.
func APISessionFromContext(ctx context.Context) *APISession {
	if s, ok := ctx.Value(sessionKey).(*APISession); ok {
		return s
	}
	return nil
}
