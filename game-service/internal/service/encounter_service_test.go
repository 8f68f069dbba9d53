package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repoMocks "pokedex-server/game-service/internal/repository/mocks"
	"pokedex-server/game-service/internal/service"
	sharedMocks "pokedex-server/shared/interfaces/mocks"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testFleeAfter = 50 * time.Millisecond

func pikachuDetail() *models.CatalogDetail {
	return &models.CatalogDetail{
		ID:       25,
		Name:     "pikachu",
		Types:    []string{"electric"},
		ImageURL: "https://img.example/25.png",
		Weight:   60,
		Height:   4,
	}
}

func newEngine(catalog *repoMocks.CatalogRepository, captures *sharedMocks.CaptureRepository) service.EncounterService {
	return service.NewEncounterService(catalog, captures, testFleeAfter, zap.NewNop())
}

// TestSpawn tests encounter creation
func TestSpawn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	target := 25

	t.Run("Explicit target spawn", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		session, err := engine.Spawn(ctx, userID, &target)

		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, 25, session.PokemonID)
		assert.Equal(t, "pikachu", session.Name)
		assert.Equal(t, []string{"electric"}, session.Types)
		assert.False(t, session.AlreadyCaught)
		assert.NotEqual(t, uuid.Nil, session.Token)
		mockCatalog.AssertExpectations(t)
	})

	t.Run("Explicit target fetch failure has no random fallback", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(nil, models.ErrNetworkUnavailable).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		session, err := engine.Spawn(ctx, userID, &target)

		assert.Nil(t, session)
		assert.ErrorIs(t, err, models.ErrNetworkUnavailable)
		// Случайный выбор не должен был запрашиваться
		mockCatalog.AssertNotCalled(t, "GetSummaryList", mock.Anything)
	})

	t.Run("Random spawn picks from the catalog list", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetSummaryList", ctx).
			Return([]models.CatalogSummary{{ID: 25, Name: "pikachu"}}, nil).Once()
		mockCatalog.On("GetDetail", ctx, 25).Return(pikachuDetail(), nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		session, err := engine.Spawn(ctx, userID, nil)

		require.NoError(t, err)
		assert.Equal(t, 25, session.PokemonID)
		mockCatalog.AssertExpectations(t)
	})

	t.Run("Empty catalog", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetSummaryList", ctx).Return([]models.CatalogSummary{}, nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		session, err := engine.Spawn(ctx, userID, nil)

		assert.Nil(t, session)
		assert.ErrorIs(t, err, models.ErrEmptyCatalog)
	})

	t.Run("Caught set is seeded from the store", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{25}, nil).Once()
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		session, err := engine.Spawn(ctx, userID, &target)

		require.NoError(t, err)
		assert.True(t, session.AlreadyCaught)
		mockCaptures.AssertExpectations(t)
	})
}

// TestFleeTimer tests the flee timeout behaviour
func TestFleeTimer(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	target := 25

	t.Run("Target flees after the timeout and capture reports it gone", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Twice()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		time.Sleep(3 * testFleeAfter)

		// Истекшая встреча очищена целиком
		session, err := engine.CurrentSession(userID)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, models.ErrNoActiveEncounter)

		captured, err := engine.AttemptCapture(ctx, userID)
		assert.Nil(t, captured)
		assert.ErrorIs(t, err, models.ErrTargetFled)
		mockCaptures.AssertNotCalled(t, "WriteCapture", mock.Anything, mock.Anything, mock.Anything)

		// Новый спавн сбрасывает признак бегства
		respawn, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)
		current, err := engine.CurrentSession(userID)
		require.NoError(t, err)
		assert.Equal(t, respawn.Token, current.Token)
	})

	t.Run("Already caught target never flees", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{25}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		time.Sleep(3 * testFleeAfter)

		session, err := engine.CurrentSession(userID)
		require.NoError(t, err)
		assert.True(t, session.AlreadyCaught)
	})

	t.Run("New spawn supersedes the pending timer", func(t *testing.T) {
		other := 7
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()
		mockCatalog.On("GetDetail", ctx, other).
			Return(&models.CatalogDetail{ID: 7, Name: "squirtle", Types: []string{"water"}}, nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		// Вторая встреча до истечения первой: старый таймер не должен
		// пометить новую сессию как сбежавшую
		time.Sleep(testFleeAfter / 2)
		second, err := engine.Spawn(ctx, userID, &other)
		require.NoError(t, err)

		time.Sleep(3 * testFleeAfter / 4)
		session, err := engine.CurrentSession(userID)
		require.NoError(t, err)
		assert.Equal(t, second.Token, session.Token)
		assert.Equal(t, 7, session.PokemonID)
	})
}

// TestAttemptCapture tests the capture path
func TestAttemptCapture(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	target := 25

	t.Run("No active encounter", func(t *testing.T) {
		engine := newEngine(new(repoMocks.CatalogRepository), new(sharedMocks.CaptureRepository))
		session, err := engine.AttemptCapture(ctx, userID)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, models.ErrNoActiveEncounter)
	})

	t.Run("Successful capture persists the record and updates the caught set", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil)
		mockCaptures.On("WriteCapture", ctx, userID, mock.MatchedBy(func(rec models.CaptureRecord) bool {
			return rec.PokemonID == 25 && rec.Name == "pikachu" && rec.Weight == 60
		})).Return(nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		session, err := engine.AttemptCapture(ctx, userID)
		require.NoError(t, err)
		assert.True(t, session.AlreadyCaught)

		// Повторный спавн той же цели: уже поймана, без таймера
		respawn, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)
		assert.True(t, respawn.AlreadyCaught)

		// Повторная поимка - no-op, второй записи в хранилище нет
		again, err := engine.AttemptCapture(ctx, userID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyCaught)
		mockCaptures.AssertNumberOfCalls(t, "WriteCapture", 1)
	})

	t.Run("Write failure keeps the encounter active and re-arms the timer", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()

		persistErr := errors.New("connection reset")
		mockCaptures.On("WriteCapture", ctx, userID, mock.Anything).Return(persistErr).Once()
		mockCaptures.On("WriteCapture", ctx, userID, mock.Anything).Return(nil).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		session, err := engine.AttemptCapture(ctx, userID)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, persistErr)

		// Встреча жива, повторная попытка проходит
		current, err := engine.CurrentSession(userID)
		require.NoError(t, err)
		assert.Equal(t, 25, current.PokemonID)

		session, err = engine.AttemptCapture(ctx, userID)
		require.NoError(t, err)
		assert.True(t, session.AlreadyCaught)
		mockCaptures.AssertExpectations(t)

		// Таймер после успешной поимки снят: сессия не исчезает
		time.Sleep(3 * testFleeAfter)
		current, err = engine.CurrentSession(userID)
		require.NoError(t, err)
		assert.True(t, current.AlreadyCaught)
	})

	t.Run("Write failure re-arms the full flee duration", func(t *testing.T) {
		mockCatalog := new(repoMocks.CatalogRepository)
		mockCaptures := new(sharedMocks.CaptureRepository)
		mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
		mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()
		mockCaptures.On("WriteCapture", ctx, userID, mock.Anything).Return(errors.New("down")).Once()

		engine := newEngine(mockCatalog, mockCaptures)
		_, err := engine.Spawn(ctx, userID, &target)
		require.NoError(t, err)

		_, err = engine.AttemptCapture(ctx, userID)
		require.Error(t, err)

		// После повторного взвода цель в итоге все же убегает
		time.Sleep(3 * testFleeAfter)
		_, err = engine.CurrentSession(userID)
		assert.ErrorIs(t, err, models.ErrNoActiveEncounter)
		_, err = engine.AttemptCapture(ctx, userID)
		assert.ErrorIs(t, err, models.ErrTargetFled)
	})
}

// TestEndSession tests screen-teardown semantics
func TestEndSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	target := 25

	mockCatalog := new(repoMocks.CatalogRepository)
	mockCaptures := new(sharedMocks.CaptureRepository)
	mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
	mockCatalog.On("GetDetail", ctx, target).Return(pikachuDetail(), nil).Once()

	engine := newEngine(mockCatalog, mockCaptures)
	_, err := engine.Spawn(ctx, userID, &target)
	require.NoError(t, err)

	engine.EndSession(userID)

	_, err = engine.CurrentSession(userID)
	assert.ErrorIs(t, err, models.ErrNoActiveEncounter)

	_, err = engine.AttemptCapture(ctx, userID)
	assert.ErrorIs(t, err, models.ErrNoActiveEncounter)
}
