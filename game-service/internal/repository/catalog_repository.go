package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"pokedex-server/shared/database"
	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"go.uber.org/zap"
)

// CatalogRepository defines the interface for offline-first catalog retrieval.
type CatalogRepository interface {
	// GetSummaryList возвращает список каталога. Кешированное значение
	// отдается сразу; при промахе выполняется удаленный запрос. Если сеть
	// недоступна и кеша нет - пустой список и models.ErrNetworkUnavailable.
	GetSummaryList(ctx context.Context) ([]models.CatalogSummary, error)
	// GetDetail возвращает карточку покемона по той же cache-aside схеме,
	// с отдельным ключом кеша на каждый id.
	GetDetail(ctx context.Context, id int) (*models.CatalogDetail, error)
}

// Compile-time check
var _ CatalogRepository = (*catalogRepository)(nil)

const backgroundRefreshTimeout = 30 * time.Second

type catalogRepository struct {
	cache  interfaces.CatalogCache
	source interfaces.CatalogSource
	logger *zap.Logger
	// refreshing не дает запускать больше одного фонового обновления списка
	refreshing atomic.Bool
}

// NewCatalogRepository creates a cache-aside repository over the catalog cache
// and the remote catalog source.
func NewCatalogRepository(cache interfaces.CatalogCache, source interfaces.CatalogSource, logger *zap.Logger) CatalogRepository {
	return &catalogRepository{
		cache:  cache,
		source: source,
		logger: logger.Named("CatalogRepository"),
	}
}

// GetSummaryList реализует cache-aside для списка каталога.
//
// Порядок строго такой:
//  1. Читаем кеш. Любая ошибка кеша трактуется как промах и не пробрасывается.
//  2. Попадание - сразу возвращаем кешированное значение. Фоновое обновление
//     запускается best effort и пишет ТОЛЬКО в кеш: значение, уже отданное
//     вызывающему, оно не переопределяет, и его ошибки вызывающего не касаются.
//  3. Промах - идем в удаленный источник, при успехе целиком перезаписываем
//     ключ кеша и возвращаем свежие данные.
//  4. Источник недоступен и кеша нет - пустой список + ошибка, различимая
//     через errors.Is (не паника и не nil-успех).
func (r *catalogRepository) GetSummaryList(ctx context.Context) ([]models.CatalogSummary, error) {
	if cached, ok := r.readCachedList(ctx); ok {
		r.logger.Debug("Returning catalog list from cache", zap.Int("count", len(cached)))
		r.refreshListInBackground()
		return cached, nil
	}

	summaries, err := r.source.ListCatalog(ctx)
	if err != nil {
		r.logger.Warn("Remote catalog list fetch failed with no cached fallback", zap.Error(err))
		return []models.CatalogSummary{}, err
	}

	r.writeCache(ctx, database.CatalogListKey, summaries)
	return summaries, nil
}

// GetDetail реализует cache-aside для детальной карточки.
// Карточка пишется в кеш только целиком собранной: частичный успех удаленных
// запросов (основной прошел, species нет) не оставляет в кеше мусора.
func (r *catalogRepository) GetDetail(ctx context.Context, id int) (*models.CatalogDetail, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: invalid catalog identity %d", models.ErrBadRequest, id)
	}
	key := database.CatalogDetailKey(id)

	if raw, err := r.cache.Get(ctx, key); err == nil {
		var detail models.CatalogDetail
		if err := json.Unmarshal(raw, &detail); err == nil {
			r.logger.Debug("Returning catalog detail from cache", zap.Int("pokemonID", id))
			return &detail, nil
		}
		// Битая запись в кеше - считаем промахом, перезапишем свежими данными
		r.logger.Warn("Corrupted cache entry, refetching", zap.String("key", key))
	}

	detail, err := r.source.FetchDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	r.writeCache(ctx, key, detail)
	return detail, nil
}

// readCachedList читает и десериализует список из кеша.
// false - промах либо любая деградация (ошибки кеша наружу не выходят).
func (r *catalogRepository) readCachedList(ctx context.Context) ([]models.CatalogSummary, bool) {
	raw, err := r.cache.Get(ctx, database.CatalogListKey)
	if err != nil {
		return nil, false
	}
	var summaries []models.CatalogSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		r.logger.Warn("Corrupted cached catalog list, ignoring", zap.Error(err))
		return nil, false
	}
	if len(summaries) == 0 {
		return nil, false
	}
	return summaries, true
}

// refreshListInBackground обновляет кеш списка, не блокируя вызывающего.
// Неудача фонового обновления никого не волнует: у вызывающего уже есть данные.
func (r *catalogRepository) refreshListInBackground() {
	if !r.refreshing.CompareAndSwap(false, true) {
		return // Обновление уже идет
	}
	go func() {
		defer r.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()

		summaries, err := r.source.ListCatalog(ctx)
		if err != nil {
			r.logger.Debug("Background catalog refresh failed", zap.Error(err))
			return
		}
		r.writeCache(ctx, database.CatalogListKey, summaries)
		r.logger.Debug("Background catalog refresh completed", zap.Int("count", len(summaries)))
	}()
}

// writeCache сериализует и пишет значение в кеш best effort.
// Ошибка записи логируется и глотается: кеш не должен ломать основной путь.
func (r *catalogRepository) writeCache(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Failed to marshal value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, raw); err != nil {
		r.logger.Warn("Best-effort cache write failed", zap.String("key", key), zap.Error(err))
	}
}
