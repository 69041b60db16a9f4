package handler

import (
	"net/http"
	"strconv"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Создать проект
// @Description Создает новый проект рукописи
// @Tags projects
// @Accept json
// @Produce json
// @Param request body projectRequest true "Данные проекта"
// @Success 201 {object} models.Project
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Router /api/projects [post]
func (h *Handler) createProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), service.ProjectInput{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Genre:    req.Genre,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// @Summary Список проектов
// @Description Возвращает страницу проектов, свежие сверху
// @Tags projects
// @Produce json
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param cursor query string false "Курсор следующей страницы из предыдущего ответа"
// @Success 200 {object} paginatedResponse
// @Router /api/projects [get]
func (h *Handler) listProjects(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err == nil {
			limit = parsed
		}
	}

	projects, nextCursor, err := h.projects.ListProjects(c.Request.Context(), limit, c.Query("cursor"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse{Data: projects, NextCursor: nextCursor})
}

func (h *Handler) getProject(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format", zap.String("projectID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) updateProject(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for update", zap.String("projectID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), id, service.ProjectInput{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Genre:    req.Genre,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) deleteProject(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for delete", zap.String("projectID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Сводка проекта
// @Description Количество глав и суммарный объём в словах
// @Tags projects
// @Produce json
// @Success 200 {object} models.ProjectSummary
// @Failure 404 {object} models.ErrorResponse "Проект не найден"
// @Router /api/projects/{id}/summary [get]
func (h *Handler) getProjectSummary(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for summary", zap.String("projectID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	summary, err := h.projects.GetProjectSummary(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
