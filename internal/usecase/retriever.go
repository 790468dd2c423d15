package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news-chat/internal/domain"
	"news-chat/internal/infra/metrics"
)

// DefaultTopK is the number of articles fetched per query.
const DefaultTopK = 5

// Retriever resolves a user query to the articles that ground the answer.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Article, error)
}

type retriever struct {
	cache    QueryCache
	encoder  domain.VectorEncoder
	searcher domain.ArticleSearcher
	topK     int
	timeouts Timeouts
	logger   *slog.Logger
}

func NewRetriever(
	cache QueryCache,
	encoder domain.VectorEncoder,
	searcher domain.ArticleSearcher,
	topK int,
	timeouts Timeouts,
	logger *slog.Logger,
) Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &retriever{
		cache:    cache,
		encoder:  encoder,
		searcher: searcher,
		topK:     topK,
		timeouts: timeouts,
		logger:   logger,
	}
}

func (r *retriever) Retrieve(ctx context.Context, query string) ([]domain.Article, error) {
	cached, hit, err := r.cache.Lookup(ctx, query)
	switch {
	case isCorrupt(err):
		// An undecodable entry is rebuilt from the source of truth.
		r.logger.WarnContext(ctx, "query_cache_entry_corrupt", slog.String("error", err.Error()))
		metrics.RecordQueryCache("corrupt")
	case err != nil:
		return nil, err
	case hit:
		metrics.RecordQueryCache("hit")
		r.logger.DebugContext(ctx, "query_cache_hit", slog.Int("articles", len(cached)))
		return cached, nil
	default:
		metrics.RecordQueryCache("miss")
	}

	start := time.Now()

	var vectors [][]float32
	err = callUpstream(ctx, "embedder", r.timeouts.Embed, domain.ErrEmbeddingUnavailable, func(ctx context.Context) error {
		var err error
		vectors, err = r.encoder.Encode(ctx, []string{query}, domain.EmbeddingTaskQuery)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder %s returned no vector", domain.ErrEmbeddingUnavailable, r.encoder.Version())
	}

	var articles []domain.Article
	err = callUpstream(ctx, "vector_search", r.timeouts.Search, domain.ErrRetrievalFailed, func(ctx context.Context) error {
		var err error
		articles, err = r.searcher.SearchSimilar(ctx, vectors[0], r.topK)
		return err
	})
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []domain.Article{}
	}

	if err := r.cache.Store(ctx, query, articles); err != nil {
		r.logger.WarnContext(ctx, "query_cache_store_failed", slog.String("error", err.Error()))
	}

	r.logger.InfoContext(ctx, "articles_retrieved",
		slog.Int("articles", len(articles)),
		slog.Int("top_k", r.topK),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return articles, nil
}
