package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"
	"time"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/shopify"
	"wishlist-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// nonceTTL bounds how long an OAuth initiation stays redeemable.
const nonceTTL = 10 * time.Minute

type nonceEntry struct {
	shop      string
	expiresAt time.Time
}

// OAuthService drives the Authorization Code Grant: redirect to Shopify,
// verify the callback, exchange the code, persist the session. Nonces are
// held server-side here and mirrored in a signed cookie by the handler for
// double-submit verification.
type OAuthService struct {
	cfg    *config.Config
	oauth  ports.OAuthClient
	store  ports.SessionStore
	logger zerolog.Logger

	mu     sync.Mutex
	nonces map[string]nonceEntry
}

// NewOAuthService wires the flow against a store and OAuth client.
func NewOAuthService(cfg *config.Config, oauth ports.OAuthClient, store ports.SessionStore, logger zerolog.Logger) *OAuthService {
	return &OAuthService{
		cfg:    cfg,
		oauth:  oauth,
		store:  store,
		logger: logger,
		nonces: make(map[string]nonceEntry),
	}
}

// Begin validates the installation request and returns the consent URL
// plus the nonce the handler must mirror into the signed cookie. When the
// request carries an hmac parameter (re-installation pings) it is verified
// before anything else is issued.
func (s *OAuthService) Begin(ctx context.Context, shop string, query url.Values) (string, string, error) {
	if shop == "" {
		return "", "", domain.NewError(domain.CodeInvalidRequest, "shop parameter is required")
	}
	if !s.oauth.ValidShopDomain(shop) {
		return "", "", domain.NewError(domain.CodeInvalidShop, "invalid shop hostname")
	}
	if query.Get("hmac") != "" && !s.oauth.VerifyHMAC(query) {
		return "", "", domain.NewError(domain.CodeInvalidHMAC, "hmac verification failed")
	}

	nonce, err := generateNonce()
	if err != nil {
		return "", "", domain.WrapError(domain.CodeInternalError, "failed to generate state", err)
	}

	s.mu.Lock()
	s.pruneLocked()
	s.nonces[nonce] = nonceEntry{shop: shop, expiresAt: time.Now().Add(nonceTTL)}
	s.mu.Unlock()

	s.logger.Info().Str("shop", shop).Msg("initiating oauth flow")
	return s.oauth.AuthorizeURL(shop, nonce), nonce, nil
}

// CallbackParams are the inputs to Complete, pulled off the callback
// request by the handler.
type CallbackParams struct {
	Shop        string
	Code        string
	State       string
	CookieNonce string
	Query       url.Values
}

// Complete verifies the callback and exchanges the code for an offline
// token. The state must match BOTH the server-side nonce and the cookie
// nonce; any security failure is terminal. On success the session is
// persisted, the nonce consumed, and the app redirect URL returned.
func (s *OAuthService) Complete(ctx context.Context, p CallbackParams) (string, error) {
	if !s.consumeNonce(p.State, p.Shop) || p.CookieNonce == "" || p.CookieNonce != p.State {
		s.logger.Error().Str("shop", p.Shop).Msg("oauth state verification failed")
		return "", domain.NewError(domain.CodeInvalidState, "invalid state parameter - nonce mismatch")
	}
	if p.Query.Get("hmac") != "" && !s.oauth.VerifyHMAC(p.Query) {
		s.logger.Error().Str("shop", p.Shop).Msg("oauth hmac verification failed")
		return "", domain.NewError(domain.CodeInvalidHMAC, "hmac verification failed")
	}
	if !s.oauth.ValidShopDomain(p.Shop) {
		return "", domain.NewError(domain.CodeInvalidShop, "invalid shop hostname")
	}
	if p.Code == "" || p.Shop == "" {
		return "", domain.NewError(domain.CodeInvalidRequest, "missing required parameters")
	}

	token, err := s.oauth.ExchangeCode(ctx, p.Shop, p.Code)
	if err != nil {
		return "", domain.WrapError(domain.CodeOAuthError, "oauth token exchange failed", err)
	}

	// Partial grants are logged, never fatal: a granted write scope
	// satisfies the corresponding read scope.
	if missing := shopify.MissingScopes(s.cfg.RequestedScopes(), token.Scope); len(missing) > 0 {
		s.logger.Warn().Str("shop", p.Shop).Strs("missing_scopes", missing).Msg("some requested scopes were not granted")
	}

	session := &domain.ShopSession{
		Shop:        p.Shop,
		AccessToken: token.AccessToken,
		Scope:       token.Scope,
		InstalledAt: time.Now().UTC(),
	}
	if err := s.store.Store(ctx, p.Shop, session); err != nil {
		return "", domain.WrapError(domain.CodeInternalError, "failed to persist shop session", err)
	}

	s.logger.Info().Str("shop", p.Shop).Str("scope", token.Scope).Msg("oauth flow completed")
	return fmt.Sprintf("%s?shop=%s&installed=true", s.cfg.AppURL, url.QueryEscape(p.Shop)), nil
}

// Verify reports whether the shop has a stored installation.
func (s *OAuthService) Verify(ctx context.Context, shop string) (domain.AuthStatus, error) {
	if shop == "" {
		return domain.AuthStatus{}, nil
	}
	session, err := s.store.Get(ctx, shop)
	if err != nil {
		return domain.AuthStatus{}, domain.WrapError(domain.CodeInternalError, "failed to verify authentication", err)
	}
	if session == nil || session.AccessToken == "" {
		return domain.AuthStatus{Shop: shop}, nil
	}
	return domain.AuthStatus{
		Authenticated: true,
		Shop:          shop,
		Scope:         session.Scope,
		InstalledAt:   session.InstalledAt,
	}, nil
}

// Uninstall deletes the stored session and any pending nonce for the shop.
func (s *OAuthService) Uninstall(ctx context.Context, shop string) error {
	if err := s.store.Delete(ctx, shop); err != nil {
		return domain.WrapError(domain.CodeInternalError, "failed to remove shop session", err)
	}

	s.mu.Lock()
	for state, entry := range s.nonces {
		if entry.shop == shop {
			delete(s.nonces, state)
		}
	}
	s.mu.Unlock()

	s.logger.Info().Str("shop", shop).Msg("app uninstalled")
	return nil
}

// consumeNonce validates and single-use-clears the server-side nonce.
func (s *OAuthService) consumeNonce(state, shop string) bool {
	if state == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nonces[state]
	if !ok || entry.shop != shop || time.Now().After(entry.expiresAt) {
		return false
	}
	delete(s.nonces, state)
	return true
}

func (s *OAuthService) pruneLocked() {
	now := time.Now()
	for state, entry := range s.nonces {
		if now.After(entry.expiresAt) {
			delete(s.nonces, state)
		}
	}
}

func generateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
