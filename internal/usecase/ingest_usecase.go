package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"news-chat/internal/domain"
	"news-chat/internal/infra/metrics"
)

// ArticleSnapshot persists the fetched feed items for offline embedding.
type ArticleSnapshot interface {
	Save(articles []domain.Article) error
}

type IngestConfig struct {
	FeedURLs    []string
	ItemLimit   int
	Concurrency int
	RatePerSec  float64
}

type IndexSummary struct {
	Indexed   int
	Unchanged int
	Failed    int
}

type IngestSummary struct {
	Fetched int
	IndexSummary
}

// IngestUsecase loads feed items into the vector store.
type IngestUsecase interface {
	FetchFeeds(ctx context.Context) ([]domain.Article, error)
	IndexArticles(ctx context.Context, articles []domain.Article) (IndexSummary, error)
	// Run fetches, snapshots and indexes in one pass.
	Run(ctx context.Context) (IngestSummary, error)
}

type ingestUsecase struct {
	fetcher  domain.FeedFetcher
	encoder  domain.VectorEncoder
	repo     domain.ArticleRepository
	snapshot ArticleSnapshot
	cfg      IngestConfig
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewIngestUsecase(
	fetcher domain.FeedFetcher,
	encoder domain.VectorEncoder,
	repo domain.ArticleRepository,
	snapshot ArticleSnapshot,
	cfg IngestConfig,
	logger *slog.Logger,
) IngestUsecase {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &ingestUsecase{
		fetcher:  fetcher,
		encoder:  encoder,
		repo:     repo,
		snapshot: snapshot,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// FetchFeeds reads every configured feed concurrently, keeping feed order.
// A failing feed is skipped; only a total failure is an error.
func (u *ingestUsecase) FetchFeeds(ctx context.Context) ([]domain.Article, error) {
	perFeed := make([][]domain.Article, len(u.cfg.FeedURLs))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for i, feedURL := range u.cfg.FeedURLs {
		g.Go(func() error {
			items, err := u.fetcher.Fetch(gctx, feedURL, u.cfg.ItemLimit)
			if err != nil {
				u.logger.WarnContext(gctx, "feed_fetch_failed", slog.String("feed_url", feedURL), slog.String("error", err.Error()))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			u.logger.InfoContext(gctx, "feed_fetched", slog.String("feed_url", feedURL), slog.Int("items", len(items)))
			perFeed[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if len(u.cfg.FeedURLs) > 0 && len(errs) == len(u.cfg.FeedURLs) {
		return nil, fmt.Errorf("all feeds failed: %w", errors.Join(errs...))
	}

	var articles []domain.Article
	for _, items := range perFeed {
		articles = append(articles, items...)
	}
	return articles, nil
}

// IndexArticles embeds each new or changed article as a passage and upserts
// the embedded ones. Articles whose embedding fails are logged and counted, not retried.
func (u *ingestUsecase) IndexArticles(ctx context.Context, articles []domain.Article) (IndexSummary, error) {
	pending := u.changedArticles(ctx, articles)
	embedded := make([]*domain.Article, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for i := range pending {
		g.Go(func() error {
			if err := u.limiter.Wait(gctx); err != nil {
				return err
			}
			article := pending[i]
			vectors, err := u.encoder.Encode(gctx, []string{EmbeddingText(article)}, domain.EmbeddingTaskPassage)
			if err == nil && (len(vectors) == 0 || len(vectors[0]) == 0) {
				err = fmt.Errorf("%w: no vector returned", domain.ErrEmbeddingUnavailable)
			}
			if err != nil {
				u.logger.WarnContext(gctx, "article_embed_failed", slog.String("article_id", article.ID), slog.String("error", err.Error()))
				return nil
			}
			article.Embedding = vectors[0]
			embedded[i] = &article
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IndexSummary{}, fmt.Errorf("indexing interrupted: %w", err)
	}

	batch := make([]domain.Article, 0, len(pending))
	for _, a := range embedded {
		if a != nil {
			batch = append(batch, *a)
		}
	}
	summary := IndexSummary{
		Indexed:   len(batch),
		Unchanged: len(articles) - len(pending),
		Failed:    len(pending) - len(batch),
	}

	if len(batch) > 0 {
		if err := u.repo.UpsertArticles(ctx, batch); err != nil {
			metrics.RecordIndexed("failed", len(pending))
			return IndexSummary{Unchanged: summary.Unchanged, Failed: len(pending)}, fmt.Errorf("failed to store articles: %w", err)
		}
	}
	metrics.RecordIndexed("indexed", summary.Indexed)
	metrics.RecordIndexed("unchanged", summary.Unchanged)
	metrics.RecordIndexed("failed", summary.Failed)

	return summary, nil
}

// changedArticles stamps each article's SourceHash and drops those already
// stored with the same hash. A failed lookup re-embeds everything.
func (u *ingestUsecase) changedArticles(ctx context.Context, articles []domain.Article) []domain.Article {
	ids := make([]string, len(articles))
	stamped := make([]domain.Article, len(articles))
	for i, a := range articles {
		a.SourceHash = domain.SourceHash(a.Title, a.Description)
		stamped[i] = a
		ids[i] = a.ID
	}

	stored, err := u.repo.SourceHashes(ctx, ids)
	if err != nil {
		u.logger.WarnContext(ctx, "source_hash_lookup_failed", slog.String("error", err.Error()))
		return stamped
	}

	pending := stamped[:0]
	for _, a := range stamped {
		if stored[a.ID] != a.SourceHash {
			pending = append(pending, a)
		}
	}
	return pending
}

func (u *ingestUsecase) Run(ctx context.Context) (IngestSummary, error) {
	start := time.Now()

	articles, err := u.FetchFeeds(ctx)
	if err != nil {
		return IngestSummary{}, err
	}

	if u.snapshot != nil {
		if err := u.snapshot.Save(articles); err != nil {
			u.logger.WarnContext(ctx, "snapshot_save_failed", slog.String("error", err.Error()))
		}
	}

	indexed, err := u.IndexArticles(ctx, articles)
	summary := IngestSummary{Fetched: len(articles), IndexSummary: indexed}
	if err != nil {
		return summary, err
	}

	u.logger.InfoContext(ctx, "ingest_completed",
		slog.Int("fetched", summary.Fetched),
		slog.Int("indexed", summary.Indexed),
		slog.Int("unchanged", summary.Unchanged),
		slog.Int("failed", summary.Failed),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return summary, nil
}

// EmbeddingText is the passage embedded for an article: title and description,
// or the title alone when there is no description.
func EmbeddingText(a domain.Article) string {
	desc := strings.TrimSpace(a.Description)
	if desc == "" {
		return a.Title
	}
	return a.Title + ". " + desc
}
