package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell-server/novel-service/internal/config"
	"inkwell-server/novel-service/internal/database"
	"inkwell-server/novel-service/internal/handler"
	"inkwell-server/novel-service/internal/messaging"
	"inkwell-server/novel-service/internal/service"
	"inkwell-server/novel-service/internal/textgen"
	"inkwell-server/novel-service/internal/ws"
	"inkwell-server/shared/authutils"
	sharedDatabase "inkwell-server/shared/database"
	sharedLogger "inkwell-server/shared/logger"
	sharedMessaging "inkwell-server/shared/messaging"
	sharedMiddleware "inkwell-server/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig("../../.env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
		Service:  "novel-service",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgPool, err := setupPostgres(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	if err := database.RunMigrations(pgPool); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient, err := setupRedis(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()
	zap.L().Info("Connected to RabbitMQ")

	// --- Dependency Injection ---
	projectRepo := sharedDatabase.NewPgProjectRepository(pgPool, logger)
	chapterRepo := sharedDatabase.NewPgChapterRepository(pgPool, logger)
	characterRepo := sharedDatabase.NewPgCharacterRepository(pgPool, logger)
	generationRepo := sharedDatabase.NewPgGenerationRecordRepository(pgPool, logger)
	versionRepo := sharedDatabase.NewPgVersionNodeRepository(pgPool, logger)
	settingsRepo := sharedDatabase.NewPgSettingsRepository(pgPool, logger)
	settingsCache := sharedDatabase.NewRedisSettingsCache(redisClient, logger)

	sessionManager, err := authutils.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, logger)
	if err != nil {
		zap.L().Fatal("Failed to create session manager", zap.Error(err))
	}

	taskPublisher, err := messaging.NewRabbitMQTaskPublisher(mqConn, sharedMessaging.IllustrationTaskQueueName, logger)
	if err != nil {
		zap.L().Fatal("Failed to create task publisher", zap.Error(err))
	}
	defer taskPublisher.Close()

	textClients := make(map[string]textgen.Client)
	if cfg.OpenRouterAPIKey != "" {
		openRouterClient, err := textgen.NewClient(textgen.ProviderOpenRouter, textgen.Config{
			BaseURL: cfg.OpenRouterBaseURL,
			APIKey:  cfg.OpenRouterAPIKey,
			Timeout: cfg.TextClientTimeout,
		}, logger)
		if err != nil {
			zap.L().Fatal("Failed to create OpenRouter client", zap.Error(err))
		}
		textClients[textgen.ProviderOpenRouter] = openRouterClient
	} else {
		zap.L().Warn("OpenRouter API key not configured, provider disabled")
	}
	ollamaClient, err := textgen.NewClient(textgen.ProviderOllama, textgen.Config{
		BaseURL: cfg.OllamaBaseURL,
		Timeout: cfg.TextClientTimeout,
	}, logger)
	if err != nil {
		zap.L().Fatal("Failed to create Ollama client", zap.Error(err))
	}
	textClients[textgen.ProviderOllama] = ollamaClient

	hub := ws.NewHub(logger)
	wsHandler := ws.NewHandler(hub, sessionManager, logger)

	settingsSvc := service.NewSettingsService(settingsRepo, settingsCache, logger)
	sessionSvc := service.NewSessionService(settingsSvc, sessionManager, logger)
	projectSvc := service.NewProjectService(projectRepo, chapterRepo, logger)
	chapterSvc := service.NewChapterService(chapterRepo, projectRepo, logger)
	characterSvc := service.NewCharacterService(characterRepo, projectRepo, generationRepo, logger)
	versionSvc := service.NewVersionService(versionRepo, generationRepo, logger)
	illustrationSvc := service.NewIllustrationService(generationRepo, versionRepo, settingsSvc, taskPublisher, logger)
	textSvc := service.NewTextService(projectRepo, chapterRepo, settingsSvc, textClients, cfg.DefaultTextProvider, hub, logger)
	backupSvc := service.NewBackupService(pgPool, projectRepo, chapterRepo, characterRepo, generationRepo, versionRepo, logger)

	httpHandler := handler.NewHandler(
		projectSvc,
		chapterSvc,
		characterSvc,
		settingsSvc,
		sessionSvc,
		textSvc,
		illustrationSvc,
		versionSvc,
		backupSvc,
		sessionManager,
		wsHandler,
		logger,
	)

	resultConsumer := messaging.NewResultConsumer(mqConn, generationRepo, hub, sharedMessaging.IllustrationResultQueueName, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.ZapLoggingMiddlewareForGin(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:5173"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	httpHandler.RegisterRoutes(router)

	// Prometheus middleware подключаем после регистрации роутов,
	// иначе /metrics не попадает в роутер.
	p.Use(router)

	// --- Start Background Workers ---
	go func() {
		zap.L().Info("Starting illustration result consumer...")
		if err := resultConsumer.StartConsuming(); err != nil {
			zap.L().Error("Illustration result consumer stopped with error", zap.Error(err))
		} else {
			zap.L().Info("Illustration result consumer stopped gracefully")
		}
	}()

	// --- Start HTTP Server ---
	// Read/Write таймауты не ставим: на этом же сервере живут вебсокеты
	// и длинная синхронная генерация текста.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	zap.L().Info("Stopping illustration result consumer...")
	resultConsumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	zap.L().Debug("Setting up PostgreSQL connection...")

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var pool *pgxpool.Pool
	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()

		if err != nil {
			lastErr = fmt.Errorf("unable to create postgres connection pool (attempt %d/%d): %w", attempt, maxRetries, err)
			zap.L().Warn("Postgres connection pool creation failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Error(err),
			)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
			}
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		pool.Close()
		lastErr = fmt.Errorf("unable to ping postgres database (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Postgres ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	zap.L().Error("Failed to connect to PostgreSQL after all retries", zap.Int("attempts", maxRetries), zap.Error(lastErr))
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	zap.L().Debug("Setting up Redis connection...")
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Redis connection options configured", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var client *redis.Client
	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client = redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	zap.L().Error("Failed to connect to Redis after all retries", zap.Int("attempts", maxRetries), zap.Error(lastErr))
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskRabbitMQURL(url)),
		zap.Int("max_retries", maxRetries),
		zap.Duration("retry_delay", retryDelay),
	)
	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		conn, err = amqp091.Dial(url)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxRetries),
			)
			go func() {
				notifyClose := make(chan *amqp091.Error)
				conn.NotifyClose(notifyClose)
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				} else {
					logger.Info("RabbitMQ connection closed gracefully.")
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	logger.Error("Failed to connect to RabbitMQ after all retries", zap.Int("attempts", maxRetries), zap.Error(err))
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// maskRabbitMQURL маскирует пароль в URL для логирования
func maskRabbitMQURL(urlStr string) string {
	// Простой парсинг, чтобы найти @ и //
	atIndex := -1
	schemaIndex := -1
	for i := 0; i < len(urlStr); i++ {
		if urlStr[i] == '@' {
			atIndex = i
			break
		}
	}
	for i := 0; i+2 < len(urlStr); i++ {
		if urlStr[i] == ':' && urlStr[i+1] == '/' && urlStr[i+2] == '/' {
			schemaIndex = i + 2
			break
		}
	}

	if atIndex != -1 && schemaIndex != -1 && atIndex > schemaIndex+1 {
		return urlStr[:schemaIndex+1] + "****:****@" + urlStr[atIndex+1:]
	}
	return urlStr // Возвращаем как есть, если формат не стандартный
}
