package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"news-chat/internal/adapter/cachestore"
	"news-chat/internal/domain"
)

type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string, task domain.EmbeddingTask) ([][]float32, error) {
	args := m.Called(ctx, texts, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-embed"
}

type MockArticleRepository struct {
	mock.Mock
}

func (m *MockArticleRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.Article, error) {
	args := m.Called(ctx, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Article), args.Error(1)
}

func (m *MockArticleRepository) UpsertArticles(ctx context.Context, articles []domain.Article) error {
	return m.Called(ctx, articles).Error(0)
}

func (m *MockArticleRepository) SourceHashes(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockArticleRepository) EnsureSchema(ctx context.Context, dimensions int) error {
	return m.Called(ctx, dimensions).Error(0)
}

func (m *MockArticleRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *MockLLMClient) Version() string {
	return "mock-llm"
}

type MockFeedFetcher struct {
	mock.Mock
}

func (m *MockFeedFetcher) Fetch(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	args := m.Called(ctx, feedURL, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Article), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, domain.CacheStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, cachestore.NewRedisStore(client)
}
