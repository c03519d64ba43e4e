package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// shopDomainRE validates the myshopify.com hostname. The inner group makes
// the single-character label variant legal while still rejecting leading or
// trailing hyphens.
var shopDomainRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.myshopify\.com$`)

// OAuthClient implements the Authorization Code Grant against Shopify.
type OAuthClient struct {
	cfg        *config.Config
	app        goshopify.App
	httpClient *http.Client
	logger     zerolog.Logger

	// tokenEndpoint overrides the per-shop token URL in tests.
	tokenEndpoint string
}

// NewOAuthClient builds the OAuth client from the static app credentials.
func NewOAuthClient(cfg *config.Config, logger zerolog.Logger) *OAuthClient {
	return &OAuthClient{
		cfg: cfg,
		app: goshopify.App{
			ApiKey:      cfg.APIKey,
			ApiSecret:   cfg.APISecret,
			RedirectUrl: cfg.RedirectURI,
			Scope:       cfg.Scopes,
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

var _ ports.OAuthClient = (*OAuthClient)(nil)

// ValidShopDomain reports whether shop is a well-formed *.myshopify.com
// hostname.
func (c *OAuthClient) ValidShopDomain(shop string) bool {
	return shopDomainRE.MatchString(shop)
}

// VerifyHMAC checks the hmac query parameter Shopify signs onto install and
// callback requests: HMAC-SHA256 over the sorted "key=value" pairs, minus
// the hmac and signature parameters, compared in constant time.
func (c *OAuthClient) VerifyHMAC(query url.Values) bool {
	provided := query.Get("hmac")
	if provided == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+query.Get(k))
	}

	return c.app.VerifyMessage(strings.Join(parts, "&"), strings.ToLower(provided))
}

// AuthorizeURL builds the consent redirect. grant_options[]=offline requests
// a permanent offline token.
func (c *OAuthClient) AuthorizeURL(shop, state string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s&grant_options[]=offline",
		shop,
		c.cfg.APIKey,
		url.QueryEscape(c.cfg.Scopes),
		url.QueryEscape(c.cfg.RedirectURI),
		url.QueryEscape(state),
	)
}

// ExchangeCode trades an authorization code for an offline access token.
// The library's GetAccessToken discards the granted scope, which the
// callback needs for the partial-grant check, so this posts directly.
func (c *OAuthClient) ExchangeCode(ctx context.Context, shop, code string) (*ports.TokenResponse, error) {
	payload, _ := json.Marshal(map[string]string{
		"client_id":     c.cfg.APIKey,
		"client_secret": c.cfg.APISecret,
		"code":          code,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(shop), strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oauth token exchange failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var token ports.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("oauth token exchange returned an empty access token")
	}

	return &token, nil
}

// MissingScopes compares granted scopes against the requested set. A
// granted write scope satisfies the corresponding read scope.
func MissingScopes(requested []string, granted string) []string {
	grantedSet := make(map[string]struct{})
	for _, s := range strings.Split(granted, ",") {
		grantedSet[strings.TrimSpace(s)] = struct{}{}
	}

	var missing []string
	for _, scope := range requested {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := grantedSet[scope]; ok {
			continue
		}
		if rest, isRead := strings.CutPrefix(scope, "read_"); isRead {
			if _, ok := grantedSet["write_"+rest]; ok {
				continue
			}
		}
		missing = append(missing, scope)
	}
	return missing
}

func (c *OAuthClient) tokenURL(shop string) string {
	if c.tokenEndpoint != "" {
		return c.tokenEndpoint
	}
	return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
}
