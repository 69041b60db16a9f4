package handler

import (
	"strings"

	"inkwell-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware закрывает API сессией разблокировки. Пока парольная
// фраза не задана, рабочее пространство открыто и запросы проходят без
// токена.
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := h.settings.GetSettings(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to load settings in session middleware", zap.Error(err))
			handleServiceError(c, err)
			return
		}
		if !settings.IsLockConfigured() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			sessionVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			h.logger.Warn("Invalid Authorization header format")
			sessionVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenMalformed)
			return
		}

		claims, err := h.sessions.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			sessionVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		sessionVerificationsTotal.WithLabelValues("success").Inc()
		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}
