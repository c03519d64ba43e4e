package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/metrics"
	"wishlist-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// requestLogger logs every request and feeds the HTTP metrics, labeled by
// the chi route pattern rather than the raw path.
func requestLogger(logger zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			elapsed := time.Since(start)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", elapsed).
				Msg("request")
			if m != nil {
				m.ObserveHTTP(route, r.Method, strconv.Itoa(ww.Status()), elapsed)
			}
		})
	}
}

// resolveIdentity evaluates the authentication strategies in a fixed
// order: bearer session token, then the x-customer-id header, then a
// customerId field in a JSON body. A present-but-invalid bearer token
// fails the request; an absent identity is attached as unauthenticated and
// enforced by the handlers, so field validation can still answer first.
func resolveIdentity(exchanger ports.TokenExchanger, logger zerolog.Logger, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "" {
				token, ok := strings.CutPrefix(auth, "Bearer ")
				if !ok || token == "" {
					writeErrorCode(w, http.StatusUnauthorized, domain.CodeMissingSessionToken, "Session token required in Authorization header")
					return
				}

				identity, err := identityFromSessionToken(r, exchanger, token)
				if err != nil {
					logger.Warn().Err(err).Msg("session token authentication failed")
					writeError(w, err, production)
					return
				}
				ctx := domain.WithIdentity(r.Context(), identity)
				ctx = domain.WithAPISession(ctx, identity.Session)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if customerID := r.Header.Get("x-customer-id"); customerID != "" {
				ctx := domain.WithIdentity(r.Context(), domain.ResolvedIdentity{
					CustomerID: customerID,
					Source:     domain.SourceHeader,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if customerID := customerIDFromBody(r); customerID != "" {
				ctx := domain.WithIdentity(r.Context(), domain.ResolvedIdentity{
					CustomerID: customerID,
					Source:     domain.SourceBody,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// attachShopSession loads the stored offline token for the shop named by
// the request (query parameter or webhook-style header) and makes it the
// request-scoped Admin API session. A token-exchange session set earlier in
// the chain wins; lookup failures are logged and the request proceeds with
// the static fallback.
func attachShopSession(store ports.SessionStore, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if domain.APISessionFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			shop := r.URL.Query().Get("shop")
			if shop == "" {
				shop = r.Header.Get("X-Shopify-Shop-Domain")
			}
			if shop == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := store.Get(r.Context(), shop)
			if err != nil {
				logger.Warn().Err(err).Str("shop", shop).Msg("failed to load shop session")
				next.ServeHTTP(w, r)
				return
			}
			if session == nil || session.AccessToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := domain.WithAPISession(r.Context(), &domain.APISession{
				Shop:        session.Shop,
				AccessToken: session.AccessToken,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromSessionToken(r *http.Request, exchanger ports.TokenExchanger, token string) (domain.ResolvedIdentity, error) {
	claims, err := exchanger.VerifySessionToken(token)
	if err != nil {
		return domain.ResolvedIdentity{}, domain.WrapError(domain.CodeTokenExchangeFailed, "invalid session token", err)
	}

	shop := claims.ShopDomain()
	grant, err := exchanger.ExchangeToken(r.Context(), token, shop)
	if err != nil {
		return domain.ResolvedIdentity{}, domain.WrapError(domain.CodeTokenExchangeFailed, "token exchange failed", err)
	}

	return domain.ResolvedIdentity{
		CustomerID: claims.Subject,
		Shop:       shop,
		UserID:     claims.Subject,
		Source:     domain.SourceSessionToken,
		Session:    &domain.APISession{Shop: shop, AccessToken: grant.AccessToken},
	}, nil
}

// customerIDFromBody peeks at a JSON body for a customerId field and
// restores the body for the handler.
func customerIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet {
		return ""
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return ""
	}

	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.CustomerID
}
