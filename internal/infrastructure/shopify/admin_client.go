package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/metrics"
	"wishlist-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AdminClient talks to the Shopify Admin GraphQL API. Calls prefer the
// request-scoped session and fall back to the static configured token, so
// missing configuration fails at call time with a clear error instead of
// preventing startup. Upstream errors propagate unchanged; no retry.
type AdminClient struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	// endpoint overrides the per-shop GraphQL URL in tests.
	endpoint string
}

// NewAdminClient builds the Admin API client.
func NewAdminClient(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *AdminClient {
	return &AdminClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		metrics:    m,
	}
}

var _ ports.AdminClient = (*AdminClient)(nil)

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

const customerMetafieldQuery = `
query getCustomerMetafield($customerId: ID!, $namespace: String!, $key: String!) {
  customer(id: $customerId) {
    id
    metafield(namespace: $namespace, key: $key) {
      id
      value
      type
    }
  }
}`

// GetCustomerMetafield returns the metafield, or nil when the customer has
// none under the namespace/key.
func (c *AdminClient) GetCustomerMetafield(ctx context.Context, customerID, namespace, key string, session *domain.APISession) (*domain.Metafield, error) {
	var out struct {
		Customer *struct {
			ID        string            `json:"id"`
			Metafield *domain.Metafield `json:"metafield"`
		} `json:"customer"`
	}
	vars := map[string]any{
		"customerId": CustomerGID(customerID),
		"namespace":  namespace,
		"key":        key,
	}
	if err := c.do(ctx, "getCustomerMetafield", customerMetafieldQuery, vars, session, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, nil
	}
	return out.Customer.Metafield, nil
}

const metafieldsSetMutation = `
mutation updateCustomerMetafield($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
      namespace
      key
      value
      type
    }
    userErrors {
      field
      message
    }
  }
}`

// SetCustomerMetafield writes the full metafield value ("set" semantics,
// last writer wins). Field-level userErrors surface as an error carrying
// the first message.
func (c *AdminClient) SetCustomerMetafield(ctx context.Context, customerID, namespace, key, value, fieldType string, session *domain.APISession) (*domain.Metafield, error) {
	var out struct {
		MetafieldsSet struct {
			Metafields []domain.Metafield `json:"metafields"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	vars := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   CustomerGID(customerID),
			"namespace": namespace,
			"key":       key,
			"value":     value,
			"type":      fieldType,
		}},
	}
	if err := c.do(ctx, "updateCustomerMetafield", metafieldsSetMutation, vars, session, &out); err != nil {
		return nil, err
	}
	if errs := out.MetafieldsSet.UserErrors; len(errs) > 0 {
		return nil, fmt.Errorf("metafield update failed: %s", errs[0].Message)
	}
	if len(out.MetafieldsSet.Metafields) == 0 {
		return nil, fmt.Errorf("metafield update returned no metafields")
	}
	return &out.MetafieldsSet.Metafields[0], nil
}

const productsByIDsQuery = `
query getProducts($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Product {
      id
      title
      handle
      onlineStoreUrl
      priceRange {
        minVariantPrice {
          amount
          currencyCode
        }
      }
      featuredImage {
        url
      }
      availableForSale
    }
  }
}`

// GetProductsByIDs batch-resolves product GIDs. Nodes that are deleted or
// not products come back null or without an id and are dropped.
func (c *AdminClient) GetProductsByIDs(ctx context.Context, ids []string, session *domain.APISession) ([]domain.Product, error) {
	var out struct {
		Nodes []*struct {
			ID             string `json:"id"`
			Title          string `json:"title"`
			Handle         string `json:"handle"`
			OnlineStoreURL string `json:"onlineStoreUrl"`
			PriceRange     struct {
				MinVariantPrice struct {
					Amount       string `json:"amount"`
					CurrencyCode string `json:"currencyCode"`
				} `json:"minVariantPrice"`
			} `json:"priceRange"`
			FeaturedImage *struct {
				URL string `json:"url"`
			} `json:"featuredImage"`
			AvailableForSale bool `json:"availableForSale"`
		} `json:"nodes"`
	}
	gids := make([]string, len(ids))
	for i, id := range ids {
		gids[i] = ProductGID(id)
	}
	if err := c.do(ctx, "getProducts", productsByIDsQuery, map[string]any{"ids": gids}, session, &out); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(out.Nodes))
	for _, n := range out.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		p := domain.Product{
			ID:               n.ID,
			Title:            n.Title,
			Handle:           n.Handle,
			OnlineStoreURL:   n.OnlineStoreURL,
			Price:            n.PriceRange.MinVariantPrice.Amount,
			Currency:         n.PriceRange.MinVariantPrice.CurrencyCode,
			AvailableForSale: n.AvailableForSale,
		}
		if n.FeaturedImage != nil {
			p.ImageURL = n.FeaturedImage.URL
		}
		products = append(products, p)
	}
	return products, nil
}

const customerByIDQuery = `
query getCustomer($customerId: ID!) {
  customer(id: $customerId) {
    id
    email
    firstName
    lastName
  }
}`

// GetCustomerByID fetches basic customer fields, or nil when the customer
// does not exist.
func (c *AdminClient) GetCustomerByID(ctx context.Context, customerID string, session *domain.APISession) (*domain.Customer, error) {
	var out struct {
		Customer *domain.Customer `json:"customer"`
	}
	vars := map[string]any{"customerId": CustomerGID(customerID)}
	if err := c.do(ctx, "getCustomer", customerByIDQuery, vars, session, &out); err != nil {
		return nil, err
	}
	return out.Customer, nil
}

func (c *AdminClient) do(ctx context.Context, operation, query string, variables map[string]any, session *domain.APISession, out any) error {
	resolved, err := c.resolveSession(session)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.post(ctx, resolved, query, variables, out)
	if c.metrics != nil {
		c.metrics.ObserveAdminCall(operation, err, time.Since(start))
	}
	return err
}

func (c *AdminClient) post(ctx context.Context, session *domain.APISession, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL(session.Shop), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify api request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read shopify api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shopify api request failed: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode shopify api response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("shopify api returned errors: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode shopify api data: %w", err)
	}
	return nil
}

// resolveSession prefers the request-scoped session; without one the static
// development token from the environment is used.
func (c *AdminClient) resolveSession(session *domain.APISession) (*domain.APISession, error) {
	if session != nil && session.Shop != "" && session.AccessToken != "" {
		return session, nil
	}
	if c.cfg.ShopDomain != "" && c.cfg.AccessToken != "" {
		return &domain.APISession{Shop: c.cfg.ShopDomain, AccessToken: c.cfg.AccessToken}, nil
	}
	return nil, fmt.Errorf("shopify admin client not configured: no request session and SHOPIFY_SHOP_DOMAIN/SHOPIFY_ACCESS_TOKEN unset")
}

func (c *AdminClient) graphqlURL(shop string) string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.cfg.APIVersion)
}

// CustomerGID normalizes a bare numeric customer ID into a Shopify GID.
func CustomerGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Customer/" + id
}

// ProductGID normalizes a bare numeric product ID into a Shopify GID.
func ProductGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Product/" + id
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
