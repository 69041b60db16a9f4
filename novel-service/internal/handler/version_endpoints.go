package handler

import (
	"net/http"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Создать версию иллюстрации
// @Description Добавляет узел графа версий: original открывает линию, revision дорабатывает родителя, branch и merge открывают ветку
// @Tags versions
// @Accept json
// @Produce json
// @Param request body createVersionRequest true "Параметры узла"
// @Success 201 {object} models.VersionNode
// @Failure 400 {object} models.ErrorResponse "Неверный тип или нет имени ветки"
// @Failure 409 {object} models.ErrorResponse "Номер версии уже занят"
// @Failure 422 {object} models.ErrorResponse "Родительская версия не существует"
// @Router /api/illustrations/versions [post]
func (h *Handler) createVersion(c *gin.Context) {
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	input := service.CreateVersionInput{
		ProjectID:        projectID,
		Type:             models.VersionType(req.Type),
		BranchName:       req.BranchName,
		Title:            req.Title,
		Description:      req.Description,
		Tags:             req.Tags,
		AIParameters:     req.AIParameters,
		Width:            req.Width,
		Height:           req.Height,
		GenerationTimeMs: req.GenerationTimeMs,
		FileSizeBytes:    req.FileSizeBytes,
	}
	if req.ParentVersionID != nil {
		parentID, err := uuid.Parse(*req.ParentVersionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid parent version ID format"})
			return
		}
		input.ParentVersionID = &parentID
	}
	if req.LinkedGenerationID != nil {
		generationID, err := uuid.Parse(*req.LinkedGenerationID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid linked generation ID format"})
			return
		}
		input.LinkedGenerationID = &generationID
	}

	node, err := h.versions.CreateVersion(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	versionNodesCreatedTotal.WithLabelValues(string(node.Type)).Inc()

	c.JSON(http.StatusCreated, node)
}

func (h *Handler) getVersion(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	node, err := h.versions.GetVersion(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, node)
}

// @Summary Линия версий узла
// @Description Возвращает все узлы линии от настоящего корня, по родительским ссылкам
// @Tags versions
// @Produce json
// @Success 200 {array} models.VersionNode
// @Failure 404 {object} models.ErrorResponse "Узел не найден"
// @Router /api/illustrations/versions/{id}/lineage [get]
func (h *Handler) getLineage(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format for lineage", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	lineage, err := h.versions.GetLineage(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lineage)
}

func (h *Handler) retagVersionStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format for status", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	var req retagStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.versions.RetagStatus(c.Request.Context(), id, models.VersionStatus(req.Status)); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) addVersionTags(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format for tags", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	var req addTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.versions.AddTags(c.Request.Context(), id, req.Tags); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) setVersionBranchName(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format for branch name", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	var req setBranchNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.versions.SetBranchName(c.Request.Context(), id, req.BranchName); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) linkVersionGeneration(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid version ID format for link", zap.String("versionID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid version ID format"})
		return
	}

	var req linkGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	generationID, err := uuid.Parse(req.GenerationID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid generation ID format"})
		return
	}

	if err := h.versions.LinkGeneration(c.Request.Context(), id, generationID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
