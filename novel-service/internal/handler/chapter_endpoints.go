package handler

import (
	"net/http"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Создать главу
// @Description Добавляет главу в конец проекта
// @Tags chapters
// @Accept json
// @Produce json
// @Param request body chapterRequest true "Данные главы"
// @Success 201 {object} models.Chapter
// @Failure 404 {object} models.ErrorResponse "Проект не найден"
// @Router /api/projects/{id}/chapters [post]
func (h *Handler) createChapter(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for chapter create", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	chapter, err := h.chapters.CreateChapter(c.Request.Context(), projectID, service.ChapterInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chapter)
}

func (h *Handler) listChapters(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for chapter list", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	chapters, err := h.chapters.ListChapters(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapters)
}

func (h *Handler) getChapter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid chapter ID format", zap.String("chapterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid chapter ID format"})
		return
	}

	chapter, err := h.chapters.GetChapter(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *Handler) updateChapter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid chapter ID format for update", zap.String("chapterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid chapter ID format"})
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	chapter, err := h.chapters.UpdateChapter(c.Request.Context(), id, service.ChapterInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *Handler) deleteChapter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid chapter ID format for delete", zap.String("chapterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid chapter ID format"})
		return
	}

	if err := h.chapters.DeleteChapter(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Изменить порядок глав
// @Description Применяет новый порядок; список обязан содержать все главы проекта
// @Tags chapters
// @Accept json
// @Param request body reorderChaptersRequest true "Идентификаторы глав в новом порядке"
// @Success 204
// @Failure 400 {object} models.ErrorResponse "Список не является перестановкой глав"
// @Router /api/projects/{id}/chapters/order [put]
func (h *Handler) reorderChapters(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for chapter reorder", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req reorderChaptersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	orderedIDs := make([]uuid.UUID, 0, len(req.OrderedIDs))
	for _, raw := range req.OrderedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid chapter ID in ordered_ids: " + raw})
			return
		}
		orderedIDs = append(orderedIDs, id)
	}

	if err := h.chapters.ReorderChapters(c.Request.Context(), projectID, orderedIDs); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
