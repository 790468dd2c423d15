package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"news-chat/internal/adapter/feed"
	"news-chat/internal/di"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch feeds and write the snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		articles, err := di.NewIngestUsecase(cfg, nil, nil, log).FetchFeeds(ctx)
		if err != nil {
			return err
		}
		if err := feed.NewSnapshot(cfg.Feed.SnapshotPath).Save(articles); err != nil {
			return err
		}

		log.Info("snapshot_written", slog.String("path", cfg.Feed.SnapshotPath), slog.Int("articles", len(articles)))
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d articles to %s\n", len(articles), cfg.Feed.SnapshotPath)
		return nil
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed the snapshot and upsert it into the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		articles, err := feed.NewSnapshot(cfg.Feed.SnapshotPath).Load()
		if err != nil {
			return err
		}

		repo, pool, err := openArticleRepo(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		summary, err := di.NewIngestUsecase(cfg, newEncoder(), repo, log).IndexArticles(ctx, articles)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d articles, %d failed\n", summary.Indexed, summary.Failed)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, snapshot and store in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repo, pool, err := openArticleRepo(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		summary, err := di.NewIngestUsecase(cfg, newEncoder(), repo, log).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, indexed %d, failed %d\n", summary.Fetched, summary.Indexed, summary.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd, embedCmd, runCmd)
}
