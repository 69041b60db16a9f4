package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"inkwell-server/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию для Novel Service
type Config struct {
	// Настройки сервера
	Env      string `envconfig:"ENV" default:"development"`
	Port     string `envconfig:"NOVEL_SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (кэш настроек)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	// Настройки RabbitMQ
	RabbitMQURL string `envconfig:"RABBITMQ_URL" required:"true"`

	// Сессия разблокировки рабочего пространства
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	// Секретное поле БЕЗ envconfig тега
	SessionSecret string

	// Провайдеры генерации текста
	DefaultTextProvider string        `envconfig:"DEFAULT_TEXT_PROVIDER" default:"openrouter"`
	OpenRouterBaseURL   string        `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	OllamaBaseURL       string        `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	TextClientTimeout   time.Duration `envconfig:"TEXT_CLIENT_TIMEOUT" default:"120s"`
	// Секретное поле БЕЗ envconfig тега
	OpenRouterAPIKey string

	// CORS (десктопный клиент в dev-режиме ходит с localhost)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins разбивает CORSAllowedOrigins на список origin'ов.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации novel-service: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.SessionSecret, loadErr = utils.ReadSecret("session_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// Загружаем НЕОБЯЗАТЕЛЬНЫЕ секреты
	if redisPass, err := utils.ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = redisPass
		log.Println("Redis password loaded from secret.")
	} else {
		log.Printf("Optional secret 'redis_password' not found: %v. Assuming no password.", err)
	}

	if apiKey, err := utils.ReadSecret("openrouter_api_key"); err == nil {
		cfg.OpenRouterAPIKey = apiKey
		log.Println("OpenRouter API key loaded from secret.")
	} else {
		log.Printf("Optional secret 'openrouter_api_key' not found: %v. OpenRouter client will be disabled.", err)
	}

	log.Printf("Конфигурация Novel Service загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis Addr: %s", cfg.RedisAddr)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Session TTL: %v", cfg.SessionTTL)
	log.Printf("  Default Text Provider: %s", cfg.DefaultTextProvider)
	log.Printf("  Ollama Base URL: %s", cfg.OllamaBaseURL)

	return &cfg, nil
}
