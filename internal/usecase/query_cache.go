package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"news-chat/internal/domain"
)

const (
	// QueryCacheTTL is fixed; cached results may lag the corpus by up to this long.
	QueryCacheTTL = 600 * time.Second

	queryKeyPrefix = "articles:"
)

// NormalizeQuery trims surrounding whitespace and folds case so that equivalent
// questions share a cache entry.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryCacheKey derives the cache-store key for a user query.
func QueryCacheKey(query string) string {
	return queryKeyPrefix + NormalizeQuery(query)
}

// QueryCache owns cached retrieval results keyed by normalized query text.
type QueryCache interface {
	Lookup(ctx context.Context, query string) ([]domain.Article, bool, error)
	Store(ctx context.Context, query string, articles []domain.Article) error
}

type queryCache struct {
	store   domain.CacheStore
	timeout time.Duration
}

func NewQueryCache(store domain.CacheStore, timeout time.Duration) QueryCache {
	return &queryCache{
		store:   store,
		timeout: timeout,
	}
}

func (c *queryCache) Lookup(ctx context.Context, query string) ([]domain.Article, bool, error) {
	var (
		raw   []byte
		found bool
	)
	err := callUpstream(ctx, "query_cache", c.timeout, domain.ErrStoreUnavailable, func(ctx context.Context) error {
		var err error
		raw, found, err = c.store.Get(ctx, QueryCacheKey(query))
		return err
	})
	if err != nil || !found {
		return nil, false, err
	}

	// Entries are checked for shape only: a JSON array of article objects with
	// known fields. Field values are whatever the searcher returned.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var articles []domain.Article
	if err := dec.Decode(&articles); err != nil {
		return nil, false, fmt.Errorf("%w: query cache entry: %w", domain.ErrCorruptState, err)
	}
	if dec.More() {
		return nil, false, fmt.Errorf("%w: query cache entry: trailing data", domain.ErrCorruptState)
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, true, nil
}

func (c *queryCache) Store(ctx context.Context, query string, articles []domain.Article) error {
	if articles == nil {
		articles = []domain.Article{}
	}
	payload, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to encode query cache entry: %w", err)
	}

	return callUpstream(ctx, "query_cache", c.timeout, domain.ErrStoreUnavailable, func(ctx context.Context) error {
		return c.store.Set(ctx, QueryCacheKey(query), payload, QueryCacheTTL)
	})
}
