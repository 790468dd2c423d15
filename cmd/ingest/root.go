package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"news-chat/internal/adapter/repository"
	"news-chat/internal/di"
	"news-chat/internal/domain"
	"news-chat/internal/infra"
	"news-chat/internal/infra/config"
	"news-chat/internal/infra/logger"
)

var (
	cfg          *config.Config
	log          *slog.Logger
	snapshotPath string
	feedURLs     []string
	itemLimit    int
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load news feeds into the vector store",
	Long: `ingest fetches the configured RSS feeds, embeds every item as a passage
and upserts it into the articles table searched by the chat service.

Example usage:
  ingest fetch                  # Fetch feeds and write the articles.json snapshot
  ingest embed                  # Embed the snapshot and store it
  ingest run                    # Fetch, snapshot and store in one pass`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		log = logger.New(logger.Options{Level: cfg.LogLevel})
		slog.SetDefault(log)

		if snapshotPath != "" {
			cfg.Feed.SnapshotPath = snapshotPath
		}
		if len(feedURLs) > 0 {
			cfg.Feed.URLs = feedURLs
		}
		if itemLimit > 0 {
			cfg.Feed.ItemLimit = itemLimit
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "snapshot file (default FEED_SNAPSHOT_PATH)")
	rootCmd.PersistentFlags().StringSliceVar(&feedURLs, "feed", nil, "feed URL, repeatable (default FEED_URLS)")
	rootCmd.PersistentFlags().IntVar(&itemLimit, "limit", 0, "items per feed (default FEED_ITEM_LIMIT)")
}

// openArticleRepo prepares the vector store and returns the repository with its pool.
func openArticleRepo(ctx context.Context) (domain.ArticleRepository, *pgxpool.Pool, error) {
	dsn := cfg.DB.DSN()
	if err := infra.EnsureVectorExtension(ctx, dsn); err != nil {
		return nil, nil, err
	}
	pool, err := infra.NewPostgresDB(ctx, dsn, infra.PoolConfig{MaxConns: cfg.DB.MaxConns, MinConns: cfg.DB.MinConns})
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewArticleRepository(pool)
	if err := repo.EnsureSchema(ctx, cfg.Embedder.Dimensions); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, pool, nil
}

func newEncoder() domain.VectorEncoder {
	return di.NewEmbedder(cfg, log)
}
