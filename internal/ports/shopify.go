package ports

import (
	"context"
	"net/url"

	"wishlist-shopify-layer/internal/domain"
)

// AdminClient wraps the Admin GraphQL operations the wishlist needs.
// Each call accepts a request-scoped session; a nil session falls back to
// the static configured development token. Upstream errors propagate
// unchanged; no retry or backoff is performed here.
type AdminClient interface {
	GetCustomerMetafield(ctx context.Context, customerID, namespace, key string, session *domain.APISession) (*domain.Metafield, error)
	SetCustomerMetafield(ctx context.Context, customerID, namespace, key, value, fieldType string, session *domain.APISession) (*domain.Metafield, error)
	GetProductsByIDs(ctx context.Context, ids []string, session *domain.APISession) ([]domain.Product, error)
	GetCustomerByID(ctx context.Context, customerID string, session *domain.APISession) (*domain.Customer, error)
}

// TokenResponse is the body of a successful token grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// OAuthClient implements the Authorization Code Grant against Shopify.
type OAuthClient interface {
	ValidShopDomain(shop string) bool
	VerifyHMAC(query url.Values) bool
	AuthorizeURL(shop, state string) string
	// ExchangeCode trades an authorization code for an offline access token.
	ExchangeCode(ctx context.Context, shop, code string) (*TokenResponse, error)
}

// TokenExchanger handles the embedded-app path: verifying an App Bridge
// session token and trading it for a short-lived Admin API token.
type TokenExchanger interface {
	VerifySessionToken(token string) (*domain.SessionTokenClaims, error)
	ExchangeToken(ctx context.Context, sessionToken, shop string) (*TokenResponse, error)
}
