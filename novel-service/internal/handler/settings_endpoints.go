package handler

import (
	"net/http"

	"inkwell-server/novel-service/internal/service"
	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
)

// @Summary Настройки рабочего пространства
// @Description Возвращает текущие настройки; при первом запуске - значения по умолчанию
// @Tags settings
// @Produce json
// @Success 200 {object} models.AppSettings
// @Router /api/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary Обновить настройки
// @Description Полностью заменяет изменяемые поля настроек
// @Tags settings
// @Accept json
// @Produce json
// @Param request body updateSettingsRequest true "Новые значения настроек"
// @Success 200 {object} models.AppSettings
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Router /api/settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	settings, err := h.settings.UpdateSettings(c.Request.Context(), service.UpdateSettingsInput{
		Theme:           req.Theme,
		EditorFont:      req.EditorFont,
		AutosaveSeconds: req.AutosaveSeconds,
		TextProvider:    req.TextProvider,
		TextModel:       req.TextModel,
		TextTemperature: req.TextTemperature,
		TextMaxTokens:   req.TextMaxTokens,
		ImageProvider:   req.ImageProvider,
		ImageModel:      req.ImageModel,
		ImageWidth:      req.ImageWidth,
		ImageHeight:     req.ImageHeight,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary Установить парольную фразу
// @Description Устанавливает или заменяет фразу блокировки рабочего пространства
// @Tags settings
// @Accept json
// @Param request body setLockRequest true "Парольная фраза"
// @Success 204
// @Failure 400 {object} models.ErrorResponse "Фраза слишком короткая"
// @Router /api/settings/lock [put]
func (h *Handler) setLockPassphrase(c *gin.Context) {
	var req setLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.settings.SetLockPassphrase(c.Request.Context(), req.Passphrase); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Разблокировать рабочее пространство
// @Description Сверяет парольную фразу и выпускает токен сессии
// @Tags session
// @Accept json
// @Produce json
// @Param request body unlockRequest true "Парольная фраза"
// @Success 200 {object} service.Session "Токен сессии"
// @Failure 401 {object} models.ErrorResponse "Неверная фраза"
// @Failure 409 {object} models.ErrorResponse "Блокировка не настроена"
// @Router /api/session/unlock [post]
func (h *Handler) unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.session.Unlock(c.Request.Context(), req.Passphrase)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	unlocksTotal.Inc()

	c.JSON(http.StatusOK, session)
}
