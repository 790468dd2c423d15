package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"news-chat/internal/domain"
	"news-chat/internal/usecase"
)

var stubArticles = []domain.Article{
	{ID: "a1", Title: "X", Link: "http://y", Description: "desc"},
}

func TestRetriever_MissEmbedsSearchesAndCaches(t *testing.T) {
	mr, store := newRedisStore(t)
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	r := usecase.NewRetriever(usecase.NewQueryCache(store, 0), encoder, repo, 0, usecase.Timeouts{}, testLogger())

	encoder.On("Encode", mock.Anything, []string{"What happened?"}, domain.EmbeddingTaskQuery).
		Return([][]float32{{0.1, 0.2}}, nil).Once()
	repo.On("SearchSimilar", mock.Anything, []float32{0.1, 0.2}, usecase.DefaultTopK).
		Return(stubArticles, nil).Once()

	got, err := r.Retrieve(context.Background(), "What happened?")
	require.NoError(t, err)
	assert.Equal(t, stubArticles, got)
	assert.True(t, mr.Exists("articles:what happened?"))

	encoder.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRetriever_HitSkipsEmbedding(t *testing.T) {
	_, store := newRedisStore(t)
	cache := usecase.NewQueryCache(store, 0)
	require.NoError(t, cache.Store(context.Background(), "what happened?", stubArticles))

	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	r := usecase.NewRetriever(cache, encoder, repo, 5, usecase.Timeouts{}, testLogger())

	got, err := r.Retrieve(context.Background(), "What happened?")
	require.NoError(t, err)
	assert.Equal(t, stubArticles, got)

	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SearchSimilar", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetriever_CorruptEntryIsRebuilt(t *testing.T) {
	mr, store := newRedisStore(t)
	require.NoError(t, mr.Set("articles:q", "garbage"))

	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	r := usecase.NewRetriever(usecase.NewQueryCache(store, 0), encoder, repo, 5, usecase.Timeouts{}, testLogger())

	encoder.On("Encode", mock.Anything, []string{"q"}, domain.EmbeddingTaskQuery).Return([][]float32{{1}}, nil)
	repo.On("SearchSimilar", mock.Anything, []float32{1}, 5).Return(stubArticles, nil)

	got, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, stubArticles, got)

	raw, err := mr.Get("articles:q")
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"a1"`)
}

func TestRetriever_EmbeddingFailures(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		err     error
	}{
		{name: "provider error", err: errors.New("401 unauthorized")},
		{name: "no vector", vectors: [][]float32{}},
		{name: "empty vector", vectors: [][]float32{{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, store := newRedisStore(t)
			encoder := new(MockVectorEncoder)
			repo := new(MockArticleRepository)
			r := usecase.NewRetriever(usecase.NewQueryCache(store, 0), encoder, repo, 5, usecase.Timeouts{}, testLogger())

			if tt.err != nil {
				encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return(tt.vectors, nil)
			}

			_, err := r.Retrieve(context.Background(), "q")
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.False(t, mr.Exists("articles:q"))
			repo.AssertNotCalled(t, "SearchSimilar", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRetriever_SearchFailureDoesNotPopulateCache(t *testing.T) {
	mr, store := newRedisStore(t)
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	r := usecase.NewRetriever(usecase.NewQueryCache(store, 0), encoder, repo, 5, usecase.Timeouts{}, testLogger())

	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, 5).Return(nil, errors.New("relation \"articles\" does not exist"))

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
	assert.False(t, mr.Exists("articles:q"))
}

func TestRetriever_EmbedTimeout(t *testing.T) {
	_, store := newRedisStore(t)
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	r := usecase.NewRetriever(usecase.NewQueryCache(store, 0), encoder, repo, 5,
		usecase.Timeouts{Embed: 20 * time.Millisecond}, testLogger())

	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestRetriever_CacheStoreFailureIsNotFatal(t *testing.T) {
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	cache := &failingStoreCache{}
	r := usecase.NewRetriever(cache, encoder, repo, 5, usecase.Timeouts{}, testLogger())

	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, 5).Return(stubArticles, nil)

	got, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, stubArticles, got)
	assert.Equal(t, 1, cache.stores)
}

type failingStoreCache struct {
	stores int
}

func (c *failingStoreCache) Lookup(context.Context, string) ([]domain.Article, bool, error) {
	return nil, false, nil
}

func (c *failingStoreCache) Store(context.Context, string, []domain.Article) error {
	c.stores++
	return domain.ErrStoreUnavailable
}
