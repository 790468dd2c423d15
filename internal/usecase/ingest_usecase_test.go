package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"news-chat/internal/domain"
	"news-chat/internal/usecase"
)

type recordingSnapshot struct {
	saved []domain.Article
}

func (s *recordingSnapshot) Save(articles []domain.Article) error {
	s.saved = articles
	return nil
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "Title. Body", usecase.EmbeddingText(domain.Article{Title: "Title", Description: " Body "}))
	assert.Equal(t, "Title", usecase.EmbeddingText(domain.Article{Title: "Title", Description: "  "}))
}

func TestIngest_FetchFeedsKeepsFeedOrder(t *testing.T) {
	fetcher := new(MockFeedFetcher)
	uc := usecase.NewIngestUsecase(fetcher, nil, nil, nil, usecase.IngestConfig{
		FeedURLs:    []string{"http://a/rss", "http://b/rss", "http://c/rss"},
		ItemLimit:   30,
		Concurrency: 3,
	}, testLogger())

	fetcher.On("Fetch", mock.Anything, "http://a/rss", 30).Return([]domain.Article{{ID: "http://a/rss-0"}}, nil)
	fetcher.On("Fetch", mock.Anything, "http://b/rss", 30).Return(nil, errors.New("503"))
	fetcher.On("Fetch", mock.Anything, "http://c/rss", 30).Return([]domain.Article{{ID: "http://c/rss-0"}, {ID: "http://c/rss-1"}}, nil)

	articles, err := uc.FetchFeeds(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"http://a/rss-0", "http://c/rss-0", "http://c/rss-1"}, ids)
}

func TestIngest_FetchFeedsAllFailed(t *testing.T) {
	fetcher := new(MockFeedFetcher)
	uc := usecase.NewIngestUsecase(fetcher, nil, nil, nil, usecase.IngestConfig{
		FeedURLs: []string{"http://a/rss"},
	}, testLogger())
	fetcher.On("Fetch", mock.Anything, "http://a/rss", 0).Return(nil, errors.New("dns"))

	_, err := uc.FetchFeeds(context.Background())
	assert.Error(t, err)
}

func TestIngest_IndexArticlesSkipsFailedEmbeddings(t *testing.T) {
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	uc := usecase.NewIngestUsecase(nil, encoder, repo, nil, usecase.IngestConfig{Concurrency: 2}, testLogger())

	articles := []domain.Article{
		{ID: "1", Title: "One", Description: "first"},
		{ID: "2", Title: "Two"},
		{ID: "3", Title: "Three", Description: "third"},
	}
	repo.On("SourceHashes", mock.Anything, []string{"1", "2", "3"}).Return(map[string]string{}, nil)
	encoder.On("Encode", mock.Anything, []string{"One. first"}, domain.EmbeddingTaskPassage).Return([][]float32{{1}}, nil)
	encoder.On("Encode", mock.Anything, []string{"Two"}, domain.EmbeddingTaskPassage).Return(nil, errors.New("429"))
	encoder.On("Encode", mock.Anything, []string{"Three. third"}, domain.EmbeddingTaskPassage).Return([][]float32{{3}}, nil)
	repo.On("UpsertArticles", mock.Anything, mock.MatchedBy(func(batch []domain.Article) bool {
		return len(batch) == 2 &&
			batch[0].ID == "1" && assert.ObjectsAreEqual([]float32{1}, batch[0].Embedding) &&
			batch[1].ID == "3" && assert.ObjectsAreEqual([]float32{3}, batch[1].Embedding)
	})).Return(nil).Once()

	summary, err := uc.IndexArticles(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, usecase.IndexSummary{Indexed: 2, Failed: 1}, summary)
	repo.AssertExpectations(t)
}

func TestIngest_IndexArticlesSkipsUnchanged(t *testing.T) {
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	uc := usecase.NewIngestUsecase(nil, encoder, repo, nil, usecase.IngestConfig{}, testLogger())

	articles := []domain.Article{
		{ID: "same", Title: "Same", Description: "unchanged"},
		{ID: "edited", Title: "Edited", Description: "new text"},
	}
	repo.On("SourceHashes", mock.Anything, []string{"same", "edited"}).Return(map[string]string{
		"same":   domain.SourceHash("Same", "unchanged"),
		"edited": domain.SourceHash("Edited", "old text"),
	}, nil)
	encoder.On("Encode", mock.Anything, []string{"Edited. new text"}, domain.EmbeddingTaskPassage).Return([][]float32{{7}}, nil).Once()
	repo.On("UpsertArticles", mock.Anything, mock.MatchedBy(func(batch []domain.Article) bool {
		return len(batch) == 1 && batch[0].ID == "edited" &&
			batch[0].SourceHash == domain.SourceHash("Edited", "new text")
	})).Return(nil).Once()

	summary, err := uc.IndexArticles(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, usecase.IndexSummary{Indexed: 1, Unchanged: 1}, summary)
	encoder.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestIngest_IndexArticlesStoreFailure(t *testing.T) {
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	uc := usecase.NewIngestUsecase(nil, encoder, repo, nil, usecase.IngestConfig{}, testLogger())

	repo.On("SourceHashes", mock.Anything, mock.Anything).Return(nil, errors.New("statement timeout"))
	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	repo.On("UpsertArticles", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := uc.IndexArticles(context.Background(), []domain.Article{{ID: "1", Title: "One"}})
	assert.Error(t, err)
}

func TestIngest_Run(t *testing.T) {
	fetcher := new(MockFeedFetcher)
	encoder := new(MockVectorEncoder)
	repo := new(MockArticleRepository)
	snapshot := &recordingSnapshot{}
	uc := usecase.NewIngestUsecase(fetcher, encoder, repo, snapshot, usecase.IngestConfig{
		FeedURLs:    []string{"http://a/rss"},
		ItemLimit:   2,
		Concurrency: 1,
		RatePerSec:  1000,
	}, testLogger())

	items := []domain.Article{{ID: "http://a/rss-0", Title: "A"}, {ID: "http://a/rss-1", Title: "B"}}
	fetcher.On("Fetch", mock.Anything, "http://a/rss", 2).Return(items, nil)
	repo.On("SourceHashes", mock.Anything, mock.Anything).Return(map[string]string{}, nil)
	encoder.On("Encode", mock.Anything, mock.Anything, domain.EmbeddingTaskPassage).Return([][]float32{{1}}, nil)
	repo.On("UpsertArticles", mock.Anything, mock.Anything).Return(nil)

	summary, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, items, snapshot.saved)
}
