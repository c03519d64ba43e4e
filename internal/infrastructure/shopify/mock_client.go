package shopify

import (
	"context"
	"fmt"
	"sync"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// MockAdminClient is an in-memory AdminClient used when USE_MOCK_SHOPIFY is
// set, so the app runs locally without a real store or access token. Writes
// are kept in memory, which also makes it the test double for the wishlist
// service.
type MockAdminClient struct {
	mu         sync.Mutex
	metafields map[string]domain.Metafield // key: customerID|namespace|key
	nextID     int
	logger     zerolog.Logger

	// Call counters, read by tests.
	ProductFetches int
	MetafieldReads int
}

// NewMockAdminClient builds an empty mock client.
func NewMockAdminClient(logger zerolog.Logger) *MockAdminClient {
	return &MockAdminClient{
		metafields: make(map[string]domain.Metafield),
		logger:     logger,
	}
}

var _ ports.AdminClient = (*MockAdminClient)(nil)

func (m *MockAdminClient) GetCustomerMetafield(ctx context.Context, customerID, namespace, key string, session *domain.APISession) (*domain.Metafield, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetafieldReads++
	if mf, ok := m.metafields[metafieldKey(customerID, namespace, key)]; ok {
		out := mf
		return &out, nil
	}
	return nil, nil
}

func (m *MockAdminClient) SetCustomerMetafield(ctx context.Context, customerID, namespace, key, value, fieldType string, session *domain.APISession) (*domain.Metafield, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	mf := domain.Metafield{
		ID:    fmt.Sprintf("gid://shopify/Metafield/%d", m.nextID),
		Value: value,
		Type:  fieldType,
	}
	m.metafields[metafieldKey(customerID, namespace, key)] = mf
	m.logger.Debug().Str("customer", customerID).Str("key", namespace+"."+key).Msg("mock metafield write")
	out := mf
	return &out, nil
}

func (m *MockAdminClient) GetProductsByIDs(ctx context.Context, ids []string, session *domain.APISession) ([]domain.Product, error) {
	m.mu.Lock()
	m.ProductFetches++
	m.mu.Unlock()

	products := make([]domain.Product, 0, len(ids))
	for i, id := range ids {
		products = append(products, domain.Product{
			ID:               ProductGID(id),
			Title:            fmt.Sprintf("Product %d", i+1),
			Handle:           fmt.Sprintf("product-%d", i+1),
			Price:            "19.99",
			Currency:         "USD",
			ImageURL:         "https://via.placeholder.com/300",
			AvailableForSale: true,
		})
	}
	return products, nil
}

func (m *MockAdminClient) GetCustomerByID(ctx context.Context, customerID string, session *domain.APISession) (*domain.Customer, error) {
	return &domain.Customer{
		ID:        CustomerGID(customerID),
		Email:     "customer@example.com",
		FirstName: "John",
		LastName:  "Doe",
	}, nil
}

func metafieldKey(customerID, namespace, key string) string {
	return CustomerGID(customerID) + "|" + namespace + "|" + key
}
