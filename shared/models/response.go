package models

// Машиночитаемые коды ошибок для тела ответа API.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidParent    = "INVALID_PARENT"
	ErrCodeCyclicLineage    = "CYCLIC_LINEAGE"
	ErrCodeVersionConflict  = "VERSION_NUMBER_CONFLICT"
	ErrCodeStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeWrongCredentials = "WRONG_CREDENTIALS"
	ErrCodeLockNotSet       = "LOCK_NOT_CONFIGURED"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeBackupSchema     = "BACKUP_SCHEMA_UNSUPPORTED"
	ErrCodeBackupMismatch   = "BACKUP_PROJECT_MISMATCH"
	ErrCodeStaleRefresh     = "REFRESH_SUPERSEDED"
	ErrCodeTextGeneration   = "TEXT_GENERATION_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
