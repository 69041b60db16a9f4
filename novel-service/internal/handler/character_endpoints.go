package handler

import (
	"net/http"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) createCharacter(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for character create", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	character, err := h.characters.CreateCharacter(c.Request.Context(), projectID, service.CharacterInput{
		Name:        req.Name,
		Description: req.Description,
		Appearance:  req.Appearance,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, character)
}

func (h *Handler) listCharacters(c *gin.Context) {
	projectIDStr := c.Param("id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		zap.L().Warn("Invalid project ID format for character list", zap.String("projectID", projectIDStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid project ID format"})
		return
	}

	characters, err := h.characters.ListCharacters(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, characters)
}

func (h *Handler) getCharacter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid character ID format", zap.String("characterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid character ID format"})
		return
	}

	character, err := h.characters.GetCharacter(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

func (h *Handler) updateCharacter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid character ID format for update", zap.String("characterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid character ID format"})
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	character, err := h.characters.UpdateCharacter(c.Request.Context(), id, service.CharacterInput{
		Name:        req.Name,
		Description: req.Description,
		Appearance:  req.Appearance,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

func (h *Handler) deleteCharacter(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid character ID format for delete", zap.String("characterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid character ID format"})
		return
	}

	if err := h.characters.DeleteCharacter(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Назначить портрет персонажа
// @Description Привязывает запись генерации иллюстрации как текущий портрет
// @Tags characters
// @Accept json
// @Produce json
// @Param request body setPortraitRequest true "Идентификатор записи генерации"
// @Success 200 {object} models.Character
// @Failure 400 {object} models.ErrorResponse "Запись из другого проекта"
// @Router /api/characters/{id}/portrait [put]
func (h *Handler) setCharacterPortrait(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zap.L().Warn("Invalid character ID format for portrait", zap.String("characterID", idStr), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid character ID format"})
		return
	}

	var req setPortraitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	generationID, err := uuid.Parse(req.GenerationID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid generation ID format"})
		return
	}

	character, err := h.characters.SetPortrait(c.Request.Context(), id, generationID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}
