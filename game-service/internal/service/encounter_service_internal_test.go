package service

import (
	"context"
	"testing"
	"time"

	repoMocks "pokedex-server/game-service/internal/repository/mocks"
	sharedMocks "pokedex-server/shared/interfaces/mocks"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestFleeCallbackAfterCommittedCapture воспроизводит гонку, которую токен сам
// по себе не ловит: колбэк таймера стартовал до timer.Stop, дождался st.mu,
// а поимка за это время закоммитилась под тем же токеном. Пойманная сессия
// не должна засчитываться как сбежавшая.
func TestFleeCallbackAfterCommittedCapture(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	target := 25

	mockCatalog := new(repoMocks.CatalogRepository)
	mockCaptures := new(sharedMocks.CaptureRepository)
	mockCaptures.On("ListCapturedIDs", ctx, userID).Return([]int{}, nil)
	mockCatalog.On("GetDetail", ctx, target).
		Return(&models.CatalogDetail{ID: 25, Name: "pikachu", Types: []string{"electric"}}, nil).Once()
	mockCaptures.On("WriteCapture", ctx, userID, mock.Anything).Return(nil).Once()

	// Часовое окно: штатный таймер в тесте не сработает, колбэк вызываем сами
	engine := NewEncounterService(mockCatalog, mockCaptures, time.Hour, zap.NewNop()).(*encounterService)

	spawned, err := engine.Spawn(ctx, userID, &target)
	require.NoError(t, err)

	captured, err := engine.AttemptCapture(ctx, userID)
	require.NoError(t, err)
	require.True(t, captured.AlreadyCaught)

	// Опоздавшее срабатывание с токеном уже пойманной сессии - no-op
	engine.onFleeTimer(userID, spawned.Token)

	current, err := engine.CurrentSession(userID)
	require.NoError(t, err)
	assert.Equal(t, spawned.Token, current.Token)
	assert.True(t, current.AlreadyCaught)

	again, err := engine.AttemptCapture(ctx, userID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCaught)
}
