package interfaces

import (
	"context"

	"pokedex-server/shared/models"

	"github.com/google/uuid"
)

// CaptureRepository - durable-хранилище пойманных покемонов.
// Источник истины между устройствами/сессиями; in-memory caught-set движка
// встреч - лишь его кеш.
type CaptureRepository interface {
	// WriteCapture идемпотентна: повторная запись той же пары
	// (user, pokemon) - успех без изменений.
	WriteCapture(ctx context.Context, userID uuid.UUID, record models.CaptureRecord) error
	ListCaptures(ctx context.Context, userID uuid.UUID) ([]models.CaptureRecord, error)
	ListCapturedIDs(ctx context.Context, userID uuid.UUID) ([]int, error)
}
