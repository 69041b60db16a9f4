package handler

import (
	"net/http"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Сгенерировать текст
// @Description Синхронная генерация возвращает текст в ответе; stream:true запускает поток и отдаёт requestId для подписки на ws-топик text:{requestId}
// @Tags text
// @Accept json
// @Produce json
// @Param request body generateTextRequest true "Инструкция и контекст"
// @Success 200 {object} service.TextGenerationResult
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 502 {object} models.ErrorResponse "Провайдер генерации недоступен"
// @Router /api/projects/{id}/text/generate [post]
func (h *Handler) generateText(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for text generation", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req generateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	input := service.TextGenerationInput{
		Instruction: req.Instruction,
		ContextText: req.ContextText,
		Stream:      req.Stream,
	}
	if req.ChapterID != nil {
		chapterID, err := uuid.Parse(*req.ChapterID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid chapter ID format"})
			return
		}
		input.ChapterID = &chapterID
	}

	result, err := h.text.Generate(c.Request.Context(), projectID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if result.Streaming {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
