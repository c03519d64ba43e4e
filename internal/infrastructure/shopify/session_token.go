package shopify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	grantTypeTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenTypeID     = "urn:ietf:params:oauth:token-type:id_token"
	requestedTokenType     = "urn:ietf:params:oauth:token-type:access_token"
)

// TokenExchange verifies App Bridge session tokens and trades them for
// short-lived Admin API access tokens.
type TokenExchange struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     zerolog.Logger

	// exchangeEndpoint overrides the per-shop token URL in tests.
	exchangeEndpoint string
}

// NewTokenExchange builds the exchanger from the static app credentials.
func NewTokenExchange(cfg *config.Config, logger zerolog.Logger) *TokenExchange {
	return &TokenExchange{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

var _ ports.TokenExchanger = (*TokenExchange)(nil)

// VerifySessionToken checks the HS256 signature against the app secret and
// the exp/nbf claims, and returns the decoded payload. Any failure wraps
// the cause behind an "invalid session token" error.
func (t *TokenExchange) VerifySessionToken(tokenString string) (*domain.SessionTokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(t.cfg.APISecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	out := &domain.SessionTokenClaims{
		Issuer:    claimString(claims, "iss"),
		Dest:      claimString(claims, "dest"),
		Audience:  claimString(claims, "aud"),
		Subject:   claimString(claims, "sub"),
		SessionID: claimString(claims, "sid"),
		JTI:       claimString(claims, "jti"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}

// ExchangeToken posts the RFC 8693 token-exchange grant. The caller is
// expected to mint a fresh session token on failure; there is no retry.
func (t *TokenExchange) ExchangeToken(ctx context.Context, sessionToken, shop string) (*ports.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", grantTypeTokenExchange)
	form.Set("client_id", t.cfg.APIKey)
	form.Set("client_secret", t.cfg.APISecret)
	form.Set("subject_token", sessionToken)
	form.Set("subject_token_type", subjectTokenTypeID)
	form.Set("requested_token_type", requestedTokenType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.exchangeURL(shop), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token exchange failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var token ports.TokenResponse
	if err := decodeJSON(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token exchange response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned an empty access token")
	}

	return &token, nil
}

func (t *TokenExchange) exchangeURL(shop string) string {
	if t.exchangeEndpoint != "" {
		return t.exchangeEndpoint
	}
	return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
