package domain

import (
	"context"
	"time"
)

// CacheStore is a shared key-value store with per-key TTL. It backs both the
// session history and the query-result cache. Every failure is returned to the
// caller wrapped in ErrStoreUnavailable.
type CacheStore interface {
	// Get returns found=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete is idempotent: removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
