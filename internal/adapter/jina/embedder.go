package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"news-chat/internal/domain"
)

// Embedder calls the Jina embeddings API.
type Embedder struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Client     *http.Client
	logger     *slog.Logger
}

func NewEmbedder(baseURL, apiKey, model string, dimensions int, client *http.Client, logger *slog.Logger) *Embedder {
	return &Embedder{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		Dimensions: dimensions,
		Client:     client,
		logger:     logger,
	}
}

type embedRequest struct {
	Model      string   `json:"model"`
	Task       string   `json:"task"`
	Dimensions int      `json:"dimensions,omitempty"`
	Input      []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Encode(ctx context.Context, texts []string, task domain.EmbeddingTask) ([][]float32, error) {
	start := time.Now()

	jsonData, err := json.Marshal(embedRequest{
		Model:      e.Model,
		Task:       string(task),
		Dimensions: e.Dimensions,
		Input:      texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		e.logger.ErrorContext(ctx, "jina_embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call jina: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.ErrorContext(ctx, "jina_embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("jina returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respBody.Data) != len(texts) {
		return nil, fmt.Errorf("%w: jina returned %d embeddings for %d inputs", domain.ErrEmbeddingUnavailable, len(respBody.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range respBody.Data {
		idx := d.Index
		if idx < 0 || idx >= len(vectors) {
			idx = i
		}
		vectors[idx] = d.Embedding
	}

	e.logger.DebugContext(ctx, "jina_embed_completed",
		slog.Int("embedding_count", len(vectors)),
		slog.String("task", string(task)),
		slog.Duration("elapsed", time.Since(start)))

	return vectors, nil
}

func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)
