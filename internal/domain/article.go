package domain

import (
	"context"
	"time"
)

// Article is a news item held by the vector store. The core only sees transient
// copies returned from a similarity query; Embedding is populated on the ingest path.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"pub_date,omitempty"`
	Description string     `json:"description"`
	Similarity  float64    `json:"similarity,omitempty"`
	Embedding   []float32  `json:"-"`
	SourceHash  string     `json:"-"`
}

// ArticleSearcher runs a top-k similarity query against the vector store.
type ArticleSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]Article, error)
}

// ArticleRepository is the vector store as seen by the ingest path.
type ArticleRepository interface {
	ArticleSearcher

	// UpsertArticles inserts articles with their embeddings, replacing rows with the same ID.
	UpsertArticles(ctx context.Context, articles []Article) error

	// SourceHashes returns the stored SourceHash of each known id.
	SourceHashes(ctx context.Context, ids []string) (map[string]string, error)

	// EnsureSchema creates the articles table, its vector index and the match_articles
	// function when missing. The vector extension must already be installed.
	EnsureSchema(ctx context.Context, dimensions int) error

	Ping(ctx context.Context) error
}

// FeedFetcher reads an RSS/Atom feed and returns its first items as articles
// with cleaned descriptions and no embedding.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string, limit int) ([]Article, error)
}
