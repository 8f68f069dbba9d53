package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pokedex-server/game-service/internal/repository"
	"pokedex-server/shared/database"
	sharedMocks "pokedex-server/shared/interfaces/mocks"
	"pokedex-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

var testSummaries = []models.CatalogSummary{
	{ID: 1, Name: "bulbasaur", ResourceURL: "https://pokeapi.co/api/v2/pokemon/1/"},
	{ID: 4, Name: "charmander", ResourceURL: "https://pokeapi.co/api/v2/pokemon/4/"},
	{ID: 7, Name: "squirtle", ResourceURL: "https://pokeapi.co/api/v2/pokemon/7/"},
}

// TestGetSummaryList tests the cache-aside list path
func TestGetSummaryList(t *testing.T) {
	ctx := context.Background()

	t.Run("Cache hit survives a remote outage", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return(mustMarshal(t, testSummaries), nil).Once()
		// Фоновое обновление уходит в недоступную сеть - это никого не касается
		mockSource.On("ListCatalog", mock.Anything).
			Return(nil, models.ErrNetworkUnavailable).Maybe()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		require.NoError(t, err)
		assert.Equal(t, testSummaries, got)
	})

	t.Run("Cache miss fetches remote and caches wholesale", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return(nil, models.ErrCacheMiss).Once()
		mockSource.On("ListCatalog", ctx).Return(testSummaries, nil).Once()
		mockCache.On("Set", ctx, database.CatalogListKey, mustMarshal(t, testSummaries)).
			Return(nil).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		require.NoError(t, err)
		assert.Equal(t, testSummaries, got)
		mockCache.AssertExpectations(t)
		mockSource.AssertExpectations(t)
	})

	t.Run("Remote failure with no cache returns empty slice and a distinguishable error", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return(nil, models.ErrCacheMiss).Once()
		mockSource.On("ListCatalog", ctx).
			Return(nil, models.ErrNetworkUnavailable).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		assert.ErrorIs(t, err, models.ErrNetworkUnavailable)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Cache write failure degrades silently", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return(nil, models.ErrCacheMiss).Once()
		mockSource.On("ListCatalog", ctx).Return(testSummaries, nil).Once()
		mockCache.On("Set", ctx, database.CatalogListKey, mock.Anything).
			Return(errors.New("redis down")).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		require.NoError(t, err)
		assert.Equal(t, testSummaries, got)
	})

	t.Run("Corrupted cached list is treated as a miss", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return([]byte("{not json"), nil).Once()
		mockSource.On("ListCatalog", ctx).Return(testSummaries, nil).Once()
		mockCache.On("Set", ctx, database.CatalogListKey, mock.Anything).Return(nil).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		require.NoError(t, err)
		assert.Equal(t, testSummaries, got)
	})

	t.Run("Cache hit triggers a background refresh that only rewrites the cache", func(t *testing.T) {
		stale := testSummaries[:1]
		fresh := testSummaries

		refreshed := make(chan struct{})
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, database.CatalogListKey).
			Return(mustMarshal(t, stale), nil).Once()
		mockSource.On("ListCatalog", mock.Anything).Return(fresh, nil).Once()
		mockCache.On("Set", mock.Anything, database.CatalogListKey, mustMarshal(t, fresh)).
			Run(func(mock.Arguments) { close(refreshed) }).
			Return(nil).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetSummaryList(ctx)

		// Вызывающему отдается именно кешированное значение, не свежее
		require.NoError(t, err)
		assert.Equal(t, stale, got)

		select {
		case <-refreshed:
		case <-time.After(2 * time.Second):
			t.Fatal("background refresh never rewrote the cache")
		}
		mockSource.AssertExpectations(t)
	})
}

// TestGetDetail tests the cache-aside detail path
func TestGetDetail(t *testing.T) {
	ctx := context.Background()
	detail := &models.CatalogDetail{
		ID:    25,
		Name:  "pikachu",
		Types: []string{"electric"},
	}
	key := database.CatalogDetailKey(25)

	t.Run("Cache hit", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, key).Return(mustMarshal(t, detail), nil).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetDetail(ctx, 25)

		require.NoError(t, err)
		assert.Equal(t, detail, got)
		mockSource.AssertNotCalled(t, "FetchDetail", mock.Anything, mock.Anything)
	})

	t.Run("Cache miss fetches and caches", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, key).Return(nil, models.ErrCacheMiss).Once()
		mockSource.On("FetchDetail", ctx, 25).Return(detail, nil).Once()
		mockCache.On("Set", ctx, key, mustMarshal(t, detail)).Return(nil).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetDetail(ctx, 25)

		require.NoError(t, err)
		assert.Equal(t, detail, got)
		mockCache.AssertExpectations(t)
	})

	t.Run("Remote failure caches nothing", func(t *testing.T) {
		mockCache := new(sharedMocks.CatalogCache)
		mockSource := new(sharedMocks.CatalogSource)
		mockCache.On("Get", ctx, key).Return(nil, models.ErrCacheMiss).Once()
		mockSource.On("FetchDetail", ctx, 25).Return(nil, models.ErrNetworkUnavailable).Once()

		repo := repository.NewCatalogRepository(mockCache, mockSource, zap.NewNop())
		got, err := repo.GetDetail(ctx, 25)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrNetworkUnavailable)
		mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid identity", func(t *testing.T) {
		repo := repository.NewCatalogRepository(new(sharedMocks.CatalogCache), new(sharedMocks.CatalogSource), zap.NewNop())
		got, err := repo.GetDetail(ctx, 0)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}
