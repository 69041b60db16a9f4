package handler

import (
	"net/http"

	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Экспортировать проект
// @Description Возвращает полный архив проекта одним JSON-документом
// @Tags backup
// @Produce json
// @Success 200 {object} models.BackupArchive
// @Failure 404 {object} models.ErrorResponse "Проект не найден"
// @Router /api/projects/{id}/backup [get]
func (h *Handler) exportBackup(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for backup export", zap.String("projectID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	archive, err := h.backup.Export(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, archive)
}

// @Summary Восстановить проект из архива
// @Description Импортирует архив одной транзакцией; существующий проект с тем же id заменяется целиком
// @Tags backup
// @Accept json
// @Produce json
// @Param request body models.BackupArchive true "Архив проекта"
// @Success 200 {object} models.BackupRestoreResult
// @Failure 400 {object} models.ErrorResponse "Неподдерживаемая версия схемы или чужой проект в архиве"
// @Router /api/backup/restore [post]
func (h *Handler) restoreBackup(c *gin.Context) {
	var archive models.BackupArchive
	if err := c.ShouldBindJSON(&archive); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.backup.Restore(c.Request.Context(), &archive)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
