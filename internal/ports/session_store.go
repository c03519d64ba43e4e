package ports

import (
	"context"

	"wishlist-shopify-layer/internal/domain"
)

// SessionStore persists one access-token record per shop domain.
// Implementations must be safe for concurrent use by request handlers.
type SessionStore interface {
	Store(ctx context.Context, shop string, session *domain.ShopSession) error
	// Get returns nil, nil when no record exists for the shop.
	Get(ctx context.Context, shop string) (*domain.ShopSession, error)
	Delete(ctx context.Context, shop string) error
	GetAll(ctx context.Context) (map[string]*domain.ShopSession, error)
}
