package models

// Коды ошибок для клиентов API. Сообщение человекочитаемое, код - машинный.
const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeCatalogOffline = "CATALOG_UNAVAILABLE"
	ErrCodeEmptyCatalog   = "CATALOG_EMPTY"
	ErrCodeNoEncounter    = "NO_ACTIVE_ENCOUNTER"
	ErrCodeTargetGone     = "TARGET_GONE"
	ErrCodeCaptureFailed  = "CAPTURE_FAILED"
	ErrCodePersistence    = "PERSISTENCE_FAILURE"
	ErrCodeTokenInvalid   = "TOKEN_INVALID"
	ErrCodeTokenExpired   = "TOKEN_EXPIRED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
