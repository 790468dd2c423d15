package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"news-chat/internal/domain"
)

const userAgent = "news-chat-ingest/1.0"

// RSSFetcher reads RSS/Atom feeds with gofeed.
type RSSFetcher struct {
	client    *http.Client
	sanitizer *Sanitizer
	logger    *slog.Logger
}

func NewRSSFetcher(client *http.Client, logger *slog.Logger) *RSSFetcher {
	return &RSSFetcher{
		client:    client,
		sanitizer: NewSanitizer(),
		logger:    logger,
	}
}

// Fetch returns at most limit items (all when limit <= 0), identified as
// "<feedURL>-<position>".
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	start := time.Now()

	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = userAgent

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	items := parsed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	articles := make([]domain.Article, 0, len(items))
	for idx, item := range items {
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		articles = append(articles, domain.Article{
			ID:          fmt.Sprintf("%s-%d", feedURL, idx),
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: item.PublishedParsed,
			Description: f.sanitizer.PlainText(desc),
		})
	}

	f.logger.DebugContext(ctx, "feed_parsed",
		slog.String("feed_url", feedURL),
		slog.String("feed_title", parsed.Title),
		slog.Int("items", len(articles)),
		slog.Duration("elapsed", time.Since(start)))

	return articles, nil
}

var _ domain.FeedFetcher = (*RSSFetcher)(nil)
