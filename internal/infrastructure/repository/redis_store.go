package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shop_session:"

// RedisSessionStore keeps one key per shop, so concurrent installs of
// different shops never contend on a shared document.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore connects using a redis:// URL and pings once so a
// bad address fails at startup.
func NewRedisSessionStore(ctx context.Context, redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisSessionStore{client: client}, nil
}

var _ ports.SessionStore = (*RedisSessionStore)(nil)

func (s *RedisSessionStore) Store(ctx context.Context, shop string, session *domain.ShopSession) error {
	record := *session
	record.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+shop, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, shop string) (*domain.ShopSession, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+shop).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session domain.ShopSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, shop string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+shop).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) GetAll(ctx context.Context) (map[string]*domain.ShopSession, error) {
	sessions := map[string]*domain.ShopSession{}
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		shop := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		session, err := s.Get(ctx, shop)
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions[shop] = session
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}
