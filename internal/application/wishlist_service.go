package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/infrastructure/metrics"
	"wishlist-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Wishlist state lives entirely in two customer metafields: the product-ID
// list and a parallel map of product ID to the time it was added.
const (
	MetafieldNamespace = "app"
	WishlistKey        = "wishlist"
	TimestampsKey      = "wishlist_timestamps"

	wishlistFieldType   = "list.product_reference"
	timestampsFieldType = "json"
)

// WishlistService reads and writes the metafield-backed wishlist. Every
// write is a full-document replace with no upstream version check, so all
// mutations for a customer are funneled through a per-customer lock:
// concurrent add/remove calls for the same customer serialize instead of
// clobbering each other's read-modify-write.
type WishlistService struct {
	client  ports.AdminClient
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWishlistService wires the service against an Admin API client.
func NewWishlistService(client ports.AdminClient, logger zerolog.Logger, m *metrics.Metrics) *WishlistService {
	return &WishlistService{
		client:  client,
		logger:  logger,
		metrics: m,
		locks:   make(map[string]*sync.Mutex),
	}
}

// AddToWishlist appends the product to the customer's wishlist. Adding a
// product that is already present is a no-op returning the unchanged list.
func (s *WishlistService) AddToWishlist(ctx context.Context, customerID, productID string, session *domain.APISession) (*domain.WishlistSummary, error) {
	unlock := s.lockCustomer(customerID)
	defer unlock()

	summary, err := s.addLocked(ctx, customerID, productID, session)
	s.observe("add", err)
	return summary, err
}

func (s *WishlistService) addLocked(ctx context.Context, customerID, productID string, session *domain.APISession) (*domain.WishlistSummary, error) {
	current := s.readWishlist(ctx, customerID, session)
	for _, id := range current {
		if id == productID {
			return &domain.WishlistSummary{ItemCount: len(current), Wishlist: current}, nil
		}
	}

	updated := append(current, productID)
	if err := s.writeWishlist(ctx, customerID, updated, session); err != nil {
		s.logger.Error().Err(err).Str("customer", customerID).Str("product", productID).Msg("failed to add to wishlist")
		return nil, domain.WrapError(domain.CodeShopifyAPIError, "failed to add product to wishlist", err)
	}

	// Timestamps are non-critical metadata: a failed write is logged and
	// the addition still succeeds.
	s.updateTimestamps(ctx, customerID, productID, true, session)

	return &domain.WishlistSummary{ItemCount: len(updated), Wishlist: updated}, nil
}

// RemoveFromWishlist filters the product out of the list. Removing an
// absent product still succeeds.
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, customerID, productID string, session *domain.APISession) (*domain.WishlistSummary, error) {
	unlock := s.lockCustomer(customerID)
	defer unlock()

	summary, err := s.removeLocked(ctx, customerID, productID, session)
	s.observe("remove", err)
	return summary, err
}

func (s *WishlistService) removeLocked(ctx context.Context, customerID, productID string, session *domain.APISession) (*domain.WishlistSummary, error) {
	current := s.readWishlist(ctx, customerID, session)
	updated := make([]string, 0, len(current))
	for _, id := range current {
		if id != productID {
			updated = append(updated, id)
		}
	}

	if err := s.writeWishlist(ctx, customerID, updated, session); err != nil {
		s.logger.Error().Err(err).Str("customer", customerID).Str("product", productID).Msg("failed to remove from wishlist")
		return nil, domain.WrapError(domain.CodeShopifyAPIError, "failed to remove product from wishlist", err)
	}

	s.updateTimestamps(ctx, customerID, productID, false, session)

	return &domain.WishlistSummary{ItemCount: len(updated), Wishlist: updated}, nil
}

// GetCustomerWishlist returns the raw product-ID list. The read path is
// fail-soft: any fetch or parse failure degrades to an empty list.
func (s *WishlistService) GetCustomerWishlist(ctx context.Context, customerID string, session *domain.APISession) []string {
	list := s.readWishlist(ctx, customerID, session)
	s.observe("get", nil)
	return list
}

// GetWishlistWithProducts joins the ID list with product details and added
// timestamps into display-ready records. An empty wishlist short-circuits
// without a product fetch.
func (s *WishlistService) GetWishlistWithProducts(ctx context.Context, customerID string, session *domain.APISession) ([]domain.WishlistItem, error) {
	productIDs := s.readWishlist(ctx, customerID, session)
	if len(productIDs) == 0 {
		s.observe("get_with_products", nil)
		return []domain.WishlistItem{}, nil
	}

	timestamps := s.readTimestamps(ctx, customerID, session)

	products, err := s.client.GetProductsByIDs(ctx, productIDs, session)
	if err != nil {
		s.observe("get_with_products", err)
		return nil, domain.WrapError(domain.CodeShopifyAPIError, "failed to get wishlist", err)
	}

	items := make([]domain.WishlistItem, 0, len(products))
	for _, p := range products {
		itemURL := p.OnlineStoreURL
		if itemURL == "" {
			itemURL = "/products/" + p.Handle
		}
		items = append(items, domain.WishlistItem{
			ProductID:        p.ID,
			Title:            p.Title,
			Handle:           p.Handle,
			Price:            p.Price,
			Currency:         p.Currency,
			ImageURL:         p.ImageURL,
			URL:              itemURL,
			AvailableForSale: p.AvailableForSale,
			AddedAt:          timestamps[p.ID],
		})
	}
	s.observe("get_with_products", nil)
	return items, nil
}

func (s *WishlistService) readWishlist(ctx context.Context, customerID string, session *domain.APISession) []string {
	metafield, err := s.client.GetCustomerMetafield(ctx, customerID, MetafieldNamespace, WishlistKey, session)
	if err != nil {
		s.logger.Error().Err(err).Str("customer", customerID).Msg("failed to read wishlist metafield")
		return []string{}
	}
	if metafield == nil || metafield.Value == "" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(metafield.Value), &list); err != nil {
		s.logger.Error().Err(err).Str("customer", customerID).Msg("failed to parse wishlist metafield")
		return []string{}
	}
	return list
}

func (s *WishlistService) writeWishlist(ctx context.Context, customerID string, list []string, session *domain.APISession) error {
	value, err := json.Marshal(list)
	if err != nil {
		return err
	}
	_, err = s.client.SetCustomerMetafield(ctx, customerID, MetafieldNamespace, WishlistKey, string(value), wishlistFieldType, session)
	return err
}

// updateTimestamps records or clears the added-at entry for a product.
// Every path in here is best-effort: failures are logged, never returned,
// so a missing timestamp later renders as a null addedAt.
func (s *WishlistService) updateTimestamps(ctx context.Context, customerID, productID string, added bool, session *domain.APISession) {
	timestamps := s.readTimestamps(ctx, customerID, session)
	if added {
		timestamps[productID] = time.Now().UTC().Format(time.RFC3339)
	} else {
		delete(timestamps, productID)
	}

	value, err := json.Marshal(timestamps)
	if err != nil {
		s.logger.Warn().Err(err).Str("customer", customerID).Msg("failed to encode wishlist timestamps")
		return
	}
	if _, err := s.client.SetCustomerMetafield(ctx, customerID, MetafieldNamespace, TimestampsKey, string(value), timestampsFieldType, session); err != nil {
		s.logger.Warn().Err(err).Str("customer", customerID).Msg("failed to update wishlist timestamps")
	}
}

func (s *WishlistService) readTimestamps(ctx context.Context, customerID string, session *domain.APISession) map[string]string {
	metafield, err := s.client.GetCustomerMetafield(ctx, customerID, MetafieldNamespace, TimestampsKey, session)
	if err != nil {
		s.logger.Warn().Err(err).Str("customer", customerID).Msg("failed to read wishlist timestamps")
		return map[string]string{}
	}
	if metafield == nil || metafield.Value == "" {
		return map[string]string{}
	}

	timestamps := map[string]string{}
	if err := json.Unmarshal([]byte(metafield.Value), &timestamps); err != nil {
		s.logger.Warn().Err(err).Str("customer", customerID).Msg("failed to parse wishlist timestamps")
		return map[string]string{}
	}
	return timestamps
}

// lockCustomer acquires the single-writer lock for a customer. Locks are
// kept for the life of the process; the map grows with the active customer
// set, which is bounded in practice.
func (s *WishlistService) lockCustomer(customerID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[customerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[customerID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *WishlistService) observe(operation string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveWishlistOp(operation, err)
	}
}
