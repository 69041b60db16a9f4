package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config структура для хранения всей конфигурации воркера.
type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogEncoding string `env:"LOG_ENCODING" env-default:"json"`

	RabbitMQ    RabbitMQConfig
	ImageServer ImageServerConfig

	PushGatewayURL string `env:"PUSHGATEWAY_URL" env-required:"true"`

	// Сгенерированные файлы кладутся на смонтированный volume,
	// наружу отдаются статикой по ImagePublicBaseURL.
	ImageSavePath      string `env:"IMAGE_SAVE_PATH" env-required:"true"`
	ImagePublicBaseURL string `env:"IMAGE_PUBLIC_BASE_URL" env-required:"true"`
}

// RabbitMQConfig конфигурация для подключения к RabbitMQ.
type RabbitMQConfig struct {
	URL             string      `env:"RABBITMQ_URL" env-required:"true"`
	ConsumerName    string      `env:"RABBITMQ_CONSUMER_NAME" env-default:"illustration_worker"`
	TaskQueue       QueueConfig `env-prefix:"RABBITMQ_ILLUSTRATION_TASK_QUEUE_"`
	ResultQueueName string      `env:"ILLUSTRATION_RESULT_QUEUE" env-default:"illustration_generation_results"`
}

// QueueConfig настройки для конкретной очереди RabbitMQ.
// Параметры должны совпадать с объявлением очереди на стороне novel-service.
type QueueConfig struct {
	Name       string `env:"NAME" env-default:"illustration_generation_tasks"`
	Durable    bool   `env:"DURABLE" env-default:"true"`
	AutoDelete bool   `env:"AUTO_DELETE" env-default:"false"`
	Exclusive  bool   `env:"EXCLUSIVE" env-default:"false"`
	NoWait     bool   `env:"NO_WAIT" env-default:"false"`
}

// ImageServerConfig конфигурация локального сервера генерации изображений.
type ImageServerConfig struct {
	BaseURL string `env:"IMAGE_SERVER_BASE_URL" env-required:"true"`
	Timeout int    `env:"IMAGE_SERVER_TIMEOUT_SEC" env-default:"180"` // Таймаут в секундах
}

// Load загружает конфигурацию из переменных окружения и .env файла.
func Load() *Config {
	// Загружаем .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	return &cfg
}
