package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/novel-service/internal/versiongraph"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Запросить генерацию иллюстрации
// @Description Создает запись генерации в статусе pending и ставит задачу воркеру
// @Tags illustrations
// @Accept json
// @Produce json
// @Param request body generateIllustrationRequest true "Параметры генерации"
// @Success 202 {object} models.GenerationRecord
// @Failure 400 {object} models.ErrorResponse "Пустой промпт"
// @Failure 404 {object} models.ErrorResponse "Проект не найден"
// @Router /api/projects/{id}/illustrations [post]
func (h *Handler) requestIllustration(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for illustration request", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req generateIllustrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	input := service.GenerateIllustrationInput{
		ProjectID:      projectID,
		Prompt:         req.Prompt,
		EnhancedPrompt: req.EnhancedPrompt,
		Provider:       req.Provider,
		Model:          req.Model,
		Width:          req.Width,
		Height:         req.Height,
		IsFree:         req.IsFree,
	}
	if req.CharacterID != nil {
		characterID, err := uuid.Parse(*req.CharacterID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid character ID format"})
			return
		}
		input.CharacterID = &characterID
	}

	record, err := h.illustrations.RequestGeneration(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	illustrationTasksQueuedTotal.Inc()

	// 202: картинка появится позже в ws-топике illustrations:{projectId}.
	c.JSON(http.StatusAccepted, record)
}

// @Summary Галерея иллюстраций проекта
// @Description Обогащённый графом версий список генераций с фильтрацией и сортировкой
// @Tags illustrations
// @Produce json
// @Param character_id query string false "Только иллюстрации персонажа"
// @Param limit query int false "Размер страницы истории"
// @Param offset query int false "Смещение страницы истории"
// @Param provider query string false "Фильтр по провайдеру"
// @Param status query string false "Фильтр по статусу (pending|processing|completed|failed)"
// @Param lineage query string false "Срез линий версий (all|latest|original|multi)"
// @Param search query string false "Подстрока в промптах, номере версии и тегах"
// @Param sort query string false "Порядок (date|provider|model|version|custom)"
// @Param custom_order query string false "Перестановка id через запятую для sort=custom"
// @Success 200 {object} galleryResponse
// @Router /api/projects/{id}/illustrations [get]
func (h *Handler) getGallery(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for gallery", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	query, err := parseGalleryQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()})
		return
	}

	records, err := h.illustrations.GetGallery(c.Request.Context(), projectID, query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, galleryResponse{Data: records, Count: len(records)})
}

func (h *Handler) getIllustration(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid illustration ID format", zap.String("illustrationID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid illustration ID format"})
		return
	}

	record, err := h.illustrations.GetIllustration(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// parseGalleryQuery собирает параметры галереи из query string.
// Неизвестные значения status, lineage и sort отклоняются, а не игнорируются:
// молчаливый полный список вместо отфильтрованного хуже ошибки.
func parseGalleryQuery(c *gin.Context) (service.GalleryQuery, error) {
	var query service.GalleryQuery

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return query, fmt.Errorf("invalid limit: %q", limitStr)
		}
		query.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return query, fmt.Errorf("invalid offset: %q", offsetStr)
		}
		query.Offset = offset
	}

	if characterIDStr := c.Query("character_id"); characterIDStr != "" {
		characterID, err := uuid.Parse(characterIDStr)
		if err != nil {
			return query, fmt.Errorf("invalid character_id: %q", characterIDStr)
		}
		query.CharacterID = &characterID
	}

	query.Filter.Provider = c.Query("provider")
	query.Filter.Search = c.Query("search")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.GenerationStatus(statusStr)
		if !models.IsValidGenerationStatus(status) {
			return query, fmt.Errorf("invalid status: %q", statusStr)
		}
		query.Filter.Status = status
	}

	if lineageStr := c.Query("lineage"); lineageStr != "" {
		switch lf := versiongraph.LineageFilter(lineageStr); lf {
		case versiongraph.LineageAll, versiongraph.LineageLatestOnly,
			versiongraph.LineageOriginalOnly, versiongraph.LineageMultiVersion:
			query.Filter.Lineage = lf
		default:
			return query, fmt.Errorf("invalid lineage: %q", lineageStr)
		}
	}

	query.Sort = versiongraph.SortByDate
	if sortStr := c.Query("sort"); sortStr != "" {
		switch key := versiongraph.SortKey(sortStr); key {
		case versiongraph.SortByDate, versiongraph.SortByProvider,
			versiongraph.SortByModel, versiongraph.SortByVersion, versiongraph.SortByCustom:
			query.Sort = key
		default:
			return query, fmt.Errorf("invalid sort: %q", sortStr)
		}
	}

	if orderStr := c.Query("custom_order"); orderStr != "" {
		for _, raw := range strings.Split(orderStr, ",") {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return query, fmt.Errorf("invalid id in custom_order: %q", raw)
			}
			query.CustomOrder = append(query.CustomOrder, id)
		}
	}
	if query.Sort == versiongraph.SortByCustom && len(query.CustomOrder) == 0 {
		return query, fmt.Errorf("sort=custom requires custom_order")
	}

	return query, nil
}
