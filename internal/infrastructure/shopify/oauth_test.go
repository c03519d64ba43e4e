package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"wishlist-shopify-layer/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPISecret = "shpss_test_secret"

func newTestOAuthClient() *OAuthClient {
	cfg := &config.Config{
		APIKey:      "test-api-key",
		APISecret:   testAPISecret,
		Scopes:      "read_products,write_customers",
		RedirectURI: "https://app.example.com/api/auth/callback",
	}
	return NewOAuthClient(cfg, zerolog.Nop())
}

// signQuery computes the hex HMAC Shopify attaches to install and callback
// requests: sorted "key=value" pairs minus hmac and signature.
func signQuery(secret string, query url.Values) string {
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

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidShopDomain(t *testing.T) {
	c := newTestOAuthClient()

	tests := []struct {
		shop  string
		valid bool
	}{
		{"example.myshopify.com", true},
		{"my-cool-store.myshopify.com", true},
		{"a.myshopify.com", true},
		{"Store123.myshopify.com", true},
		{"", false},
		{"example.com", false},
		{"-example.myshopify.com", false},
		{"example-.myshopify.com", false},
		{"sub.example.myshopify.com", false},
		{"example.myshopify.com.evil.com", false},
		{"example.myshopify.io", false},
		{"https://example.myshopify.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.shop, func(t *testing.T) {
			assert.Equal(t, tt.valid, c.ValidShopDomain(tt.shop))
		})
	}
}

func TestVerifyHMAC(t *testing.T) {
	c := newTestOAuthClient()

	query := url.Values{}
	query.Set("shop", "example.myshopify.com")
	query.Set("code", "abc123")
	query.Set("state", "nonce-value")
	query.Set("timestamp", "1700000000")
	query.Set("hmac", signQuery(testAPISecret, query))

	assert.True(t, c.VerifyHMAC(query))

	t.Run("uppercase digest accepted", func(t *testing.T) {
		upper := url.Values{}
		for k, v := range query {
			upper[k] = v
		}
		upper.Set("hmac", strings.ToUpper(upper.Get("hmac")))
		assert.True(t, c.VerifyHMAC(upper))
	})

	t.Run("tampered parameter rejected", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range query {
			tampered[k] = v
		}
		tampered.Set("shop", "evil.myshopify.com")
		assert.False(t, c.VerifyHMAC(tampered))
	})

	t.Run("missing hmac rejected", func(t *testing.T) {
		assert.False(t, c.VerifyHMAC(url.Values{"shop": {"example.myshopify.com"}}))
	})

	t.Run("signature parameter excluded from message", func(t *testing.T) {
		withSig := url.Values{}
		for k, v := range query {
			withSig[k] = v
		}
		withSig.Set("signature", "legacy")
		assert.True(t, c.VerifyHMAC(withSig))
	})
}

func TestAuthorizeURL(t *testing.T) {
	c := newTestOAuthClient()

	got := c.AuthorizeURL("example.myshopify.com", "my-nonce")

	assert.True(t, strings.HasPrefix(got, "https://example.myshopify.com/admin/oauth/authorize?"))
	assert.Contains(t, got, "client_id=test-api-key")
	assert.Contains(t, got, "state=my-nonce")
	assert.Contains(t, got, "grant_options[]=offline")
	assert.Contains(t, got, url.QueryEscape("read_products,write_customers"))
	assert.Contains(t, got, url.QueryEscape("https://app.example.com/api/auth/callback"))
}

func TestExchangeCode(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "shpat_token",
			"scope":        "read_products,write_customers",
		})
	}))
	defer server.Close()

	c := newTestOAuthClient()
	c.tokenEndpoint = server.URL

	token, err := c.ExchangeCode(context.Background(), "example.myshopify.com", "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "shpat_token", token.AccessToken)
	assert.Equal(t, "read_products,write_customers", token.Scope)
	assert.Equal(t, "test-api-key", gotBody["client_id"])
	assert.Equal(t, testAPISecret, gotBody["client_secret"])
	assert.Equal(t, "auth-code", gotBody["code"])
}

func TestExchangeCodeUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestOAuthClient()
	c.tokenEndpoint = server.URL

	_, err := c.ExchangeCode(context.Background(), "example.myshopify.com", "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestExchangeCodeEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"scope": "read_products"})
	}))
	defer server.Close()

	c := newTestOAuthClient()
	c.tokenEndpoint = server.URL

	_, err := c.ExchangeCode(context.Background(), "example.myshopify.com", "auth-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty access token")
}

func TestMissingScopes(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		granted   string
		missing   []string
	}{
		{
			name:      "all granted",
			requested: []string{"read_products", "write_customers"},
			granted:   "read_products,write_customers",
		},
		{
			name:      "write satisfies read",
			requested: []string{"read_customers", "read_products"},
			granted:   "write_customers,read_products",
		},
		{
			name:      "partial grant reported",
			requested: []string{"read_products", "write_customer_metafields"},
			granted:   "read_products",
			missing:   []string{"write_customer_metafields"},
		},
		{
			name:      "read never satisfies write",
			requested: []string{"write_products"},
			granted:   "read_products",
			missing:   []string{"write_products"},
		},
		{
			name:      "whitespace tolerated",
			requested: []string{" read_products ", ""},
			granted:   "read_products, write_customers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, MissingScopes(tt.requested, tt.granted))
		})
	}
}
