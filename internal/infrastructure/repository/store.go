package repository

import (
	"context"
	"fmt"

	"wishlist-shopify-layer/internal/config"
	"wishlist-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewSessionStore selects the backend from configuration.
func NewSessionStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, error) {
	switch cfg.SessionStore {
	case "file", "":
		return NewFileSessionStore(cfg.SessionFile), nil
	case "redis":
		return NewRedisSessionStore(ctx, cfg.RedisURL)
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		return NewMongoSessionStore(client.Database(cfg.MongoDatabase)), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
