package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"news-chat/internal/domain"
)

// DBPool is the subset of *pgxpool.Pool the article repository needs.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

type articleRepository struct {
	db DBPool
}

func NewArticleRepository(db DBPool) domain.ArticleRepository {
	return &articleRepository{db: db}
}

const searchSimilarQuery = `
	SELECT id, title, link, pub_date, description, similarity
	FROM match_articles($1, $2)
`

// SearchSimilar returns the limit nearest articles by cosine distance.
func (r *articleRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.Article, error) {
	rows, err := r.db.Query(ctx, searchSimilarQuery, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0, limit)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.PublishedAt, &a.Description, &a.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}
	return articles, nil
}

const upsertArticleQuery = `
	INSERT INTO articles (id, title, link, pub_date, description, embedding, source_hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		link = EXCLUDED.link,
		pub_date = EXCLUDED.pub_date,
		description = EXCLUDED.description,
		embedding = EXCLUDED.embedding,
		source_hash = EXCLUDED.source_hash,
		updated_at = now()
`

func (r *articleRepository) UpsertArticles(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, a := range articles {
			if len(a.Embedding) == 0 {
				return fmt.Errorf("article %s has no embedding", a.ID)
			}
			_, err := tx.Exec(ctx, upsertArticleQuery,
				a.ID, a.Title, a.Link, a.PublishedAt, a.Description, pgvector.NewVector(a.Embedding), a.SourceHash)
			if err != nil {
				return fmt.Errorf("failed to upsert article %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

func (r *articleRepository) SourceHashes(ctx context.Context, ids []string) (map[string]string, error) {
	hashes := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return hashes, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id, source_hash FROM articles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query source hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan source hash: %w", err)
		}
		hashes[id] = hash
	}
	return hashes, rows.Err()
}

// EnsureSchema creates the articles table, its cosine index and match_articles.
// The vector extension must already exist; see infra.EnsureVectorExtension.
func (r *articleRepository) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			pub_date TIMESTAMPTZ,
			description TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			source_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions),
		`ALTER TABLE articles ADD COLUMN IF NOT EXISTS source_hash TEXT NOT NULL DEFAULT ''`,
		`CREATE INDEX IF NOT EXISTS articles_embedding_idx
			ON articles USING hnsw (embedding vector_cosine_ops)`,
		`CREATE OR REPLACE FUNCTION match_articles(query_embedding vector, match_count int)
		RETURNS TABLE (id TEXT, title TEXT, link TEXT, pub_date TIMESTAMPTZ, description TEXT, similarity FLOAT8)
		LANGUAGE sql STABLE AS $$
			SELECT a.id, a.title, a.link, a.pub_date, a.description,
				1 - (a.embedding <=> query_embedding) AS similarity
			FROM articles a
			ORDER BY a.embedding <=> query_embedding
			LIMIT match_count
		$$`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure article schema: %w", err)
		}
	}
	return nil
}

func (r *articleRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
