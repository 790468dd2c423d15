// Package cachestore implements domain.CacheStore on Redis and on an in-process LRU.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"news-chat/internal/domain"
)

// RedisStore implements domain.CacheStore with Redis string keys and EX expiry.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps a shared go-redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable("del", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: redis %s %q: %w", domain.ErrStoreUnavailable, op, key, err)
}

var _ domain.CacheStore = (*RedisStore)(nil)
