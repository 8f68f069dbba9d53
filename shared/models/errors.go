package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource Errors
	ErrNotFound = errors.New("resource not found") // Удаленный ресурс отсутствует (404 каталога, пост и т.д.)

	// Catalog / Network Errors
	ErrNetworkUnavailable = errors.New("remote catalog unavailable") // Сеть недоступна или каталог вернул не-2xx
	ErrCacheMiss          = errors.New("cache miss")                 // Внутренняя ошибка кеша, наружу не пробрасывается

	// Persistence Errors
	ErrPersistence = errors.New("persistence failure") // Ошибка записи/чтения durable-хранилища (pg)

	// Encounter Errors
	ErrEmptyCatalog      = errors.New("catalog is empty, nothing to spawn")
	ErrNoActiveEncounter = errors.New("no active encounter session")
	ErrTargetFled        = errors.New("encounter target is gone") // Таймер сработал раньше попытки поимки

	// Token Errors (проверка токена, выданного внешним auth-сервисом)
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
