package interfaces

import (
	"context"

	"pokedex-server/shared/models"
)

// CatalogCache - key/value кеш сериализованных записей каталога.
// Ошибки чтения интерпретируются вызывающим кодом как промах, ошибки записи -
// best effort. Отсутствие значения - models.ErrCacheMiss.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// ClearNamespace удаляет все ключи с данным префиксом. Используется как
	// механизм инвалидации при смене схемы кешируемых записей.
	ClearNamespace(ctx context.Context, prefix string) error
}

// CatalogSource - удаленный read-only источник каталога (PokeAPI).
// ListCatalog может вернуть models.ErrNetworkUnavailable;
// FetchDetail - models.ErrNetworkUnavailable либо models.ErrNotFound.
type CatalogSource interface {
	ListCatalog(ctx context.Context) ([]models.CatalogSummary, error)
	FetchDetail(ctx context.Context, id int) (*models.CatalogDetail, error)
}
