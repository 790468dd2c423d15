package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"news-chat/internal/domain"
)

// Snapshot is the articles.json file written between fetching and embedding.
type Snapshot struct {
	Path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{Path: path}
}

// Save replaces the snapshot file atomically.
func (s *Snapshot) Save(articles []domain.Article) error {
	if articles == nil {
		articles = []domain.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".articles-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *Snapshot) Load() ([]domain.Article, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.Path, err)
	}
	return articles, nil
}
