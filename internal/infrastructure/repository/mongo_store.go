package repository

import (
	"context"
	"fmt"
	"time"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionStore keeps one document per shop, upserted by domain.
type MongoSessionStore struct {
	collection *mongo.Collection
}

// NewMongoSessionStore uses the "shop_sessions" collection of the given
// database.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{collection: db.Collection("shop_sessions")}
}

var _ ports.SessionStore = (*MongoSessionStore)(nil)

func (s *MongoSessionStore) Store(ctx context.Context, shop string, session *domain.ShopSession) error {
	record := *session
	record.UpdatedAt = time.Now().UTC()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": shop}
	update := bson.M{"$set": &record}

	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Get(ctx context.Context, shop string) (*domain.ShopSession, error) {
	var session domain.ShopSession
	err := s.collection.FindOne(ctx, bson.M{"shop": shop}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, shop string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"shop": shop}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) GetAll(ctx context.Context) (map[string]*domain.ShopSession, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := map[string]*domain.ShopSession{}
	for cursor.Next(ctx) {
		var session domain.ShopSession
		if err := cursor.Decode(&session); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		sessions[session.Shop] = &session
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return sessions, nil
}
