package handler

import (
	"errors"
	"net/http"

	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrGenerationRecordNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidParent):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidParent, Message: "Parent version does not exist"}
	case errors.Is(err, models.ErrCyclicLineage):
		// Цикл в родительских ссылках означает повреждённые данные,
		// клиент тут ничего исправить не может.
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeCyclicLineage, Message: "Version lineage is corrupted (cycle detected)"}
	case errors.Is(err, models.ErrVersionNumberConflict):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeVersionConflict, Message: "Version number already taken, retry the request"}
	case errors.Is(err, models.ErrInvalidStatusTransition):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeStatusTransition, Message: "Generation status cannot move backward"}
	case errors.Is(err, models.ErrStaleRefresh):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeStaleRefresh, Message: "Request superseded by a newer refresh"}
	case errors.Is(err, models.ErrBranchNameRequired),
		errors.Is(err, models.ErrInvalidVersionType),
		errors.Is(err, models.ErrInvalidVersionStatus),
		errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeWrongCredentials, Message: "Invalid passphrase"}
	case errors.Is(err, models.ErrLockNotConfigured):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeLockNotSet, Message: "Workspace lock is not configured"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Session has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Session token is invalid or malformed"}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Authentication required"}
	case errors.Is(err, models.ErrBackupSchemaUnsupported):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBackupSchema, Message: err.Error()}
	case errors.Is(err, models.ErrBackupProjectMismatch):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBackupMismatch, Message: err.Error()}
	case errors.Is(err, models.ErrTextGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeTextGeneration, Message: "Text generation failed"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
