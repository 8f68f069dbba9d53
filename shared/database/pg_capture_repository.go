package database

import (
	"context"
	"fmt"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgCaptureRepository implements CaptureRepository
var _ interfaces.CaptureRepository = (*pgCaptureRepository)(nil)

const (
	// Идемпотентная запись поимки: конфликт по (user_id, pokemon_id) игнорируется,
	// повторная поимка не меняет ни запись, ни captured_at.
	insertCaptureQuery = `
		INSERT INTO captures (user_id, pokemon_id, name, image_url, types, weight, height, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, pokemon_id) DO NOTHING`

	listCapturesQuery = `
		SELECT pokemon_id, name, image_url, types, weight, height, captured_at
		FROM captures
		WHERE user_id = $1
		ORDER BY captured_at DESC`

	listCapturedIDsQuery = `SELECT pokemon_id FROM captures WHERE user_id = $1`
)

type pgCaptureRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgCaptureRepository creates a new PostgreSQL-backed CaptureRepository.
func NewPgCaptureRepository(db *pgxpool.Pool, logger *zap.Logger) interfaces.CaptureRepository {
	return &pgCaptureRepository{
		db:     db,
		logger: logger.Named("PgCaptureRepo"),
	}
}

// WriteCapture сохраняет факт поимки. Дубликат - no-op успех.
func (r *pgCaptureRepository) WriteCapture(ctx context.Context, userID uuid.UUID, record models.CaptureRecord) error {
	logFields := []zap.Field{
		zap.String("userID", userID.String()),
		zap.Int("pokemonID", record.PokemonID),
	}
	r.logger.Debug("Writing capture record", logFields...)

	result, err := r.db.Exec(ctx, insertCaptureQuery,
		userID,
		record.PokemonID,
		record.Name,
		record.ImageURL,
		pq.Array(record.Types),
		record.Weight,
		record.Height,
	)
	if err != nil {
		r.logger.Error("Failed to insert capture record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: insert capture: %v", models.ErrPersistence, err)
	}

	if result.RowsAffected() == 0 {
		// Уже было поймано ранее - идемпотентный успех
		r.logger.Debug("Capture already recorded, treating as success", logFields...)
		return nil
	}

	r.logger.Info("Capture record written", logFields...)
	return nil
}

// ListCaptures возвращает все поимки пользователя, новые первыми.
func (r *pgCaptureRepository) ListCaptures(ctx context.Context, userID uuid.UUID) ([]models.CaptureRecord, error) {
	rows, err := r.db.Query(ctx, listCapturesQuery, userID)
	if err != nil {
		r.logger.Error("Failed to query captures", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: list captures: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	var records []models.CaptureRecord
	for rows.Next() {
		var rec models.CaptureRecord
		var types pq.StringArray
		if err := rows.Scan(&rec.PokemonID, &rec.Name, &rec.ImageURL, &types, &rec.Weight, &rec.Height, &rec.CapturedAt); err != nil {
			r.logger.Error("Failed to scan capture row", zap.Error(err))
			return nil, fmt.Errorf("%w: scan capture: %v", models.ErrPersistence, err)
		}
		rec.Types = types
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate captures: %v", models.ErrPersistence, err)
	}

	r.logger.Debug("Captures listed", zap.String("userID", userID.String()), zap.Int("count", len(records)))
	return records, nil
}

// ListCapturedIDs возвращает идентификаторы пойманных покемонов.
// Используется движком встреч для заполнения caught-set при входе на экран.
func (r *pgCaptureRepository) ListCapturedIDs(ctx context.Context, userID uuid.UUID) ([]int, error) {
	var ids []int
	if err := pgxscan.Select(ctx, r.db, &ids, listCapturedIDsQuery, userID); err != nil {
		r.logger.Error("Failed to list captured IDs", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: list captured ids: %v", models.ErrPersistence, err)
	}
	return ids, nil
}
