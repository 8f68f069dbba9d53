package database

import (
	"context"
	"errors"
	"fmt"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisCatalogCache implements CatalogCache
var _ interfaces.CatalogCache = (*redisCatalogCache)(nil)

// Ключи кеша каталога. Значения пишутся целиком и никогда не мержатся,
// поэтому блокировок сверх атомарной записи одного ключа не требуется.
const (
	CatalogListKey         = "catalog:list"
	CatalogDetailKeyPrefix = "catalog:detail:"
	CatalogNamespace       = "catalog:"
)

// CatalogDetailKey возвращает ключ кеша для детальной записи каталога.
func CatalogDetailKey(id int) string {
	return fmt.Sprintf("%s%d", CatalogDetailKeyPrefix, id)
}

type redisCatalogCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCatalogCache creates a new Redis-backed CatalogCache.
// TTL не используется: устаревшее значение лучше, чем отсутствие данных оффлайн.
func NewRedisCatalogCache(client *redis.Client, logger *zap.Logger) interfaces.CatalogCache {
	return &redisCatalogCache{
		client: client,
		logger: logger.Named("RedisCatalogCache"),
	}
}

// Get возвращает сериализованное значение по ключу.
// Отсутствие ключа - models.ErrCacheMiss, остальное - ошибка соединения.
func (c *redisCatalogCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Cache miss", zap.String("key", key))
			return nil, models.ErrCacheMiss
		}
		c.logger.Warn("Failed to read from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	c.logger.Debug("Cache hit", zap.String("key", key), zap.Int("bytes", len(val)))
	return val, nil
}

// Set пишет значение без TTL, целиком заменяя прежнее.
func (c *redisCatalogCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		c.logger.Warn("Failed to write to cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	c.logger.Debug("Cache key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// ClearNamespace удаляет все ключи с данным префиксом через SCAN.
// Это наш механизм инвалидации при смене схемы кешируемых записей:
// версионирования нет, просто сбрасываем namespace целиком.
func (c *redisCatalogCache) ClearNamespace(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("Failed to scan cache namespace", zap.String("prefix", prefix), zap.Error(err))
		return fmt.Errorf("failed to scan namespace %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Failed to delete cache keys", zap.String("prefix", prefix), zap.Error(err))
		return fmt.Errorf("failed to clear namespace %s: %w", prefix, err)
	}
	c.logger.Info("Cache namespace cleared", zap.String("prefix", prefix), zap.Int("keys", len(keys)))
	return nil
}
