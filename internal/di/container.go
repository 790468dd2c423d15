package di

import (
	"context"
	"fmt"
	"log/slog"

	"news-chat/internal/adapter/cachestore"
	"news-chat/internal/adapter/feed"
	"news-chat/internal/adapter/jina"
	rag_http "news-chat/internal/adapter/rag_http"
	"news-chat/internal/domain"
	"news-chat/internal/infra"
	"news-chat/internal/infra/config"
	"news-chat/internal/infra/httpclient"
	"news-chat/internal/usecase"
	"news-chat/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Stores
	CacheStore  domain.CacheStore
	ArticleRepo domain.ArticleRepository

	// Usecases
	Sessions usecase.SessionStore
	Chat     usecase.ChatUsecase
	Ingest   usecase.IngestUsecase

	Handler *rag_http.Handler

	// Worker is nil when periodic feed refresh is disabled.
	Worker *worker.FeedRefreshWorker
}

// NewCacheStore connects to Redis when a URL is configured, otherwise it
// falls back to the in-process LRU store. The returned func releases the store.
func NewCacheStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.CacheStore, func() error, error) {
	if cfg.Redis.URL == "" {
		store, err := cachestore.NewMemoryStore(cfg.Redis.MemoryStoreSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		log.Warn("REDIS_URL not set, using in-process cache store", slog.Int("size", cfg.Redis.MemoryStoreSize))
		return store, func() error { return nil }, nil
	}

	client, err := infra.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.PoolSize)
	if err != nil {
		return nil, nil, err
	}
	return cachestore.NewRedisStore(client), client.Close, nil
}

// NewEmbedder builds the Jina client on the shared pooled transport.
func NewEmbedder(cfg *config.Config, log *slog.Logger) domain.VectorEncoder {
	client := httpclient.NewPooledClient(config.Seconds(cfg.Timeouts.Embed))
	return jina.NewEmbedder(cfg.Embedder.URL, cfg.Embedder.APIKey, cfg.Embedder.Model, cfg.Embedder.Dimensions, client, log)
}

// NewIngestUsecase wires feed fetching, snapshotting and indexing.
func NewIngestUsecase(cfg *config.Config, encoder domain.VectorEncoder, repo domain.ArticleRepository, log *slog.Logger) usecase.IngestUsecase {
	fetcher := feed.NewRSSFetcher(httpclient.NewPooledClient(0), log)

	var snapshot usecase.ArticleSnapshot
	if cfg.Feed.SnapshotPath != "" {
		snapshot = feed.NewSnapshot(cfg.Feed.SnapshotPath)
	}

	return usecase.NewIngestUsecase(fetcher, encoder, repo, snapshot, usecase.IngestConfig{
		FeedURLs:    cfg.Feed.URLs,
		ItemLimit:   cfg.Feed.ItemLimit,
		Concurrency: cfg.Ingest.Concurrency,
		RatePerSec:  cfg.Ingest.RatePerSec,
	}, log)
}

// NewApplicationComponents wires the chat path from its collaborators.
func NewApplicationComponents(
	cfg *config.Config,
	store domain.CacheStore,
	repo domain.ArticleRepository,
	generator domain.LLMClient,
	log *slog.Logger,
) *ApplicationComponents {
	timeouts := usecase.Timeouts{
		Cache:    config.Seconds(cfg.Timeouts.Cache),
		Embed:    config.Seconds(cfg.Timeouts.Embed),
		Search:   config.Seconds(cfg.Timeouts.Search),
		Generate: config.Seconds(cfg.Timeouts.Generate),
	}

	embedder := NewEmbedder(cfg, log)

	sessions := usecase.NewSessionStore(store, usecase.WithSessionTimeout(timeouts.Cache))
	queryCache := usecase.NewQueryCache(store, timeouts.Cache)
	retriever := usecase.NewRetriever(queryCache, embedder, repo, cfg.RAG.TopK, timeouts, log)
	assembler := usecase.NewContextAssembler(usecase.NewNewsPromptBuilder(), generator, cfg.Generator.MaxTokens, timeouts.Generate, log)
	chat := usecase.NewChatUsecase(sessions, retriever, assembler, log)

	ingest := NewIngestUsecase(cfg, embedder, repo, log)

	var refresh *worker.FeedRefreshWorker
	if cfg.Feed.RefreshInterval > 0 {
		refresh = worker.NewFeedRefreshWorker(ingest, cfg.Feed.RefreshInterval, log)
	}

	handler := rag_http.NewHandler(sessions, chat, map[string]rag_http.Pinger{
		"cache_store":  store,
		"vector_store": repo,
	}, log)

	return &ApplicationComponents{
		CacheStore:  store,
		ArticleRepo: repo,
		Sessions:    sessions,
		Chat:        chat,
		Ingest:      ingest,
		Handler:     handler,
		Worker:      refresh,
	}
}
