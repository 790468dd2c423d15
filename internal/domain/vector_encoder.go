package domain

import (
	"context"
)

// EmbeddingTask selects the embedding flavour. Queries and stored passages are
// embedded asymmetrically.
type EmbeddingTask string

const (
	EmbeddingTaskQuery   EmbeddingTask = "retrieval.query"
	EmbeddingTaskPassage EmbeddingTask = "retrieval.passage"
)

// VectorEncoder defines the interface for generating embeddings.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string, task EmbeddingTask) ([][]float32, error)
	Version() string
}
