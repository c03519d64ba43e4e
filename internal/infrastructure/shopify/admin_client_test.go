package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

var testSession = &domain.APISession{Shop: "example.myshopify.com", AccessToken: "shpat_token"}

func newTestAdminClient(handler http.HandlerFunc) (*AdminClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	cfg := &config.Config{APIVersion: config.DefaultAPIVersion}
	client := NewAdminClient(cfg, zerolog.Nop(), nil)
	client.endpoint = server.URL
	return client, server
}

func TestGetCustomerMetafield(t *testing.T) {
	var gotReq graphQLRequest
	var gotToken string
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"customer": map[string]any{
					"id": "gid://shopify/Customer/123",
					"metafield": map[string]any{
						"id":    "gid://shopify/Metafield/1",
						"value": `["gid://shopify/Product/1"]`,
						"type":  "list.product_reference",
					},
				},
			},
		})
	})
	defer server.Close()

	mf, err := client.GetCustomerMetafield(context.Background(), "123", "app", "wishlist", testSession)
	require.NoError(t, err)
	require.NotNil(t, mf)
	assert.Equal(t, `["gid://shopify/Product/1"]`, mf.Value)
	assert.Equal(t, "list.product_reference", mf.Type)

	assert.Equal(t, "shpat_token", gotToken)
	assert.Equal(t, "gid://shopify/Customer/123", gotReq.Variables["customerId"])
	assert.Equal(t, "app", gotReq.Variables["namespace"])
	assert.Equal(t, "wishlist", gotReq.Variables["key"])
}

func TestGetCustomerMetafieldAbsent(t *testing.T) {
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"customer": map[string]any{
					"id":        "gid://shopify/Customer/123",
					"metafield": nil,
				},
			},
		})
	})
	defer server.Close()

	mf, err := client.GetCustomerMetafield(context.Background(), "123", "app", "wishlist", testSession)
	require.NoError(t, err)
	assert.Nil(t, mf)
}

func TestGetCustomerMetafieldUnknownCustomer(t *testing.T) {
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"customer": nil},
		})
	})
	defer server.Close()

	mf, err := client.GetCustomerMetafield(context.Background(), "999", "app", "wishlist", testSession)
	require.NoError(t, err)
	assert.Nil(t, mf)
}

func TestSetCustomerMetafield(t *testing.T) {
	var gotReq graphQLRequest
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"metafieldsSet": map[string]any{
					"metafields": []map[string]any{{
						"id":    "gid://shopify/Metafield/42",
						"value": `["gid://shopify/Product/1","gid://shopify/Product/2"]`,
						"type":  "list.product_reference",
					}},
					"userErrors": []any{},
				},
			},
		})
	})
	defer server.Close()

	mf, err := client.SetCustomerMetafield(context.Background(), "123", "app", "wishlist",
		`["gid://shopify/Product/1","gid://shopify/Product/2"]`, "list.product_reference", testSession)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Metafield/42", mf.ID)

	inputs, ok := gotReq.Variables["metafields"].([]any)
	require.True(t, ok)
	require.Len(t, inputs, 1)
	input := inputs[0].(map[string]any)
	assert.Equal(t, "gid://shopify/Customer/123", input["ownerId"])
	assert.Equal(t, "list.product_reference", input["type"])
}

func TestSetCustomerMetafieldUserErrors(t *testing.T) {
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"metafieldsSet": map[string]any{
					"metafields": []any{},
					"userErrors": []map[string]any{{
						"field":   []string{"metafields", "0", "value"},
						"message": "Value is not a valid product reference list",
					}},
				},
			},
		})
	})
	defer server.Close()

	_, err := client.SetCustomerMetafield(context.Background(), "123", "app", "wishlist", "junk", "list.product_reference", testSession)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value is not a valid product reference list")
}

func TestGetProductsByIDsDropsNonProducts(t *testing.T) {
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"nodes": []any{
					map[string]any{
						"id":             "gid://shopify/Product/1",
						"title":          "First Product",
						"handle":         "first-product",
						"onlineStoreUrl": "https://example.myshopify.com/products/first-product",
						"priceRange": map[string]any{
							"minVariantPrice": map[string]any{"amount": "10.00", "currencyCode": "USD"},
						},
						"featuredImage":    map[string]any{"url": "https://cdn.example.com/1.png"},
						"availableForSale": true,
					},
					nil,
					map[string]any{},
				},
			},
		})
	})
	defer server.Close()

	products, err := client.GetProductsByIDs(context.Background(), []string{"1", "2", "3"}, testSession)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "First Product", products[0].Title)
	assert.Equal(t, "10.00", products[0].Price)
	assert.Equal(t, "USD", products[0].Currency)
	assert.Equal(t, "https://cdn.example.com/1.png", products[0].ImageURL)
	assert.True(t, products[0].AvailableForSale)
}

func TestGraphQLTopLevelErrors(t *testing.T) {
	client, server := newTestAdminClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data":   nil,
			"errors": []map[string]any{{"message": "Throttled"}},
		})
	})
	defer server.Close()

	_, err := client.GetCustomerByID(context.Background(), "123", testSession)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestResolveSession(t *testing.T) {
	t.Run("request session preferred", func(t *testing.T) {
		client := NewAdminClient(&config.Config{
			ShopDomain:  "static.myshopify.com",
			AccessToken: "static-token",
		}, zerolog.Nop(), nil)

		resolved, err := client.resolveSession(testSession)
		require.NoError(t, err)
		assert.Equal(t, "example.myshopify.com", resolved.Shop)
	})

	t.Run("static fallback", func(t *testing.T) {
		client := NewAdminClient(&config.Config{
			ShopDomain:  "static.myshopify.com",
			AccessToken: "static-token",
		}, zerolog.Nop(), nil)

		resolved, err := client.resolveSession(nil)
		require.NoError(t, err)
		assert.Equal(t, "static.myshopify.com", resolved.Shop)
		assert.Equal(t, "static-token", resolved.AccessToken)
	})

	t.Run("unconfigured fails at call time", func(t *testing.T) {
		client := NewAdminClient(&config.Config{}, zerolog.Nop(), nil)

		_, err := client.resolveSession(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestGIDNormalization(t *testing.T) {
	assert.Equal(t, "gid://shopify/Customer/123", CustomerGID("123"))
	assert.Equal(t, "gid://shopify/Customer/123", CustomerGID("gid://shopify/Customer/123"))
	assert.Equal(t, "gid://shopify/Product/7", ProductGID("7"))
	assert.Equal(t, "gid://shopify/Product/7", ProductGID("gid://shopify/Product/7"))
}
