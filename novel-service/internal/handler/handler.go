package handler

import (
	"inkwell-server/novel-service/internal/service"
	"inkwell-server/novel-service/internal/ws"
	"inkwell-server/shared/authutils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler объединяет HTTP-эндпоинты рабочего пространства: проекты, главы,
// персонажи, генерация текста и иллюстраций, граф версий, настройки и бэкап.
type Handler struct {
	projects      service.ProjectService
	chapters      service.ChapterService
	characters    service.CharacterService
	settings      service.SettingsService
	session       service.SessionService
	text          service.TextService
	illustrations service.IllustrationService
	versions      service.VersionService
	backup        service.BackupService
	sessions      *authutils.SessionManager
	wsHandler     *ws.Handler
	logger        *zap.Logger
}

func NewHandler(
	projects service.ProjectService,
	chapters service.ChapterService,
	characters service.CharacterService,
	settings service.SettingsService,
	session service.SessionService,
	text service.TextService,
	illustrations service.IllustrationService,
	versions service.VersionService,
	backup service.BackupService,
	sessions *authutils.SessionManager,
	wsHandler *ws.Handler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		projects:      projects,
		chapters:      chapters,
		characters:    characters,
		settings:      settings,
		session:       session,
		text:          text,
		illustrations: illustrations,
		versions:      versions,
		backup:        backup,
		sessions:      sessions,
		wsHandler:     wsHandler,
		logger:        logger.Named("HTTPHandler"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	// Разблокировка доступна до установки сессии, остальное API закрыто.
	router.POST("/api/session/unlock", h.unlock)

	// Вебсокет проверяет токен сам: браузерный апгрейд не передаёт заголовки.
	router.GET("/ws", func(c *gin.Context) {
		h.wsHandler.ServeWS(c.Writer, c.Request)
	})

	api := router.Group("/api")
	api.Use(h.SessionMiddleware())
	{
		api.POST("/projects", h.createProject)
		api.GET("/projects", h.listProjects)
		api.GET("/projects/:id", h.getProject)
		api.PUT("/projects/:id", h.updateProject)
		api.DELETE("/projects/:id", h.deleteProject)
		api.GET("/projects/:id/summary", h.getProjectSummary)

		api.POST("/projects/:id/chapters", h.createChapter)
		api.GET("/projects/:id/chapters", h.listChapters)
		api.PUT("/projects/:id/chapters/order", h.reorderChapters)
		api.GET("/chapters/:id", h.getChapter)
		api.PUT("/chapters/:id", h.updateChapter)
		api.DELETE("/chapters/:id", h.deleteChapter)

		api.POST("/projects/:id/characters", h.createCharacter)
		api.GET("/projects/:id/characters", h.listCharacters)
		api.GET("/characters/:id", h.getCharacter)
		api.PUT("/characters/:id", h.updateCharacter)
		api.DELETE("/characters/:id", h.deleteCharacter)
		api.PUT("/characters/:id/portrait", h.setCharacterPortrait)

		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.updateSettings)
		api.PUT("/settings/lock", h.setLockPassphrase)

		api.POST("/projects/:id/text/generate", h.generateText)

		api.POST("/projects/:id/illustrations", h.requestIllustration)
		api.GET("/projects/:id/illustrations", h.getGallery)
		api.GET("/illustrations/:id", h.getIllustration)

		api.POST("/illustrations/versions", h.createVersion)
		api.GET("/illustrations/versions/:id", h.getVersion)
		api.GET("/illustrations/versions/:id/lineage", h.getLineage)
		api.PUT("/illustrations/versions/:id/status", h.retagVersionStatus)
		api.POST("/illustrations/versions/:id/tags", h.addVersionTags)
		api.PUT("/illustrations/versions/:id/branch-name", h.setVersionBranchName)
		api.PUT("/illustrations/versions/:id/link", h.linkVersionGeneration)

		api.GET("/projects/:id/backup", h.exportBackup)
		api.POST("/backup/restore", h.restoreBackup)
	}
}
