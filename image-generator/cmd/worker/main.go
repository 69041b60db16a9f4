package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"inkwell-server/image-generator/internal/config"
	"inkwell-server/image-generator/internal/service"
	"inkwell-server/image-generator/internal/worker"
	"inkwell-server/shared/logger"
	sharedMessaging "inkwell-server/shared/messaging"
)

const (
	maxConnectAttempts = 50
	connectRetryDelay  = 5 * time.Second
)

func main() {
	// --- 1. Загрузка конфигурации ---
	cfg := config.Load()

	// --- 2. Инициализация логгера ---
	appLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "image-generator",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Starting illustration worker...", zap.String("env", cfg.AppEnv))

	// --- 3. Инициализация сервиса генерации изображений ---
	imageService, err := service.NewImageGenerationService(appLogger, cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize image generation service", zap.Error(err))
	}
	appLogger.Info("Image generation service initialized")

	// --- 4. Подключение к RabbitMQ ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := connectRabbitMQ(ctx, appLogger, cfg.RabbitMQ.URL)
	if err != nil {
		appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	// Потерянное соединение воркер не переживает: выходим, оркестратор
	// перезапустит контейнер, недоделанные задачи вернутся в очередь
	go func() {
		notifyClose := make(chan *amqp091.Error)
		conn.NotifyClose(notifyClose)
		select {
		case closeErr := <-notifyClose:
			if closeErr != nil {
				appLogger.Fatal("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
			}
		case <-ctx.Done():
		}
	}()

	resultPublisher, err := newResultPublisher(conn, cfg.RabbitMQ.ResultQueueName, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create result publisher", zap.Error(err))
	}
	defer resultPublisher.Close()
	appLogger.Info("RabbitMQ result publisher initialized", zap.String("queue", cfg.RabbitMQ.ResultQueueName))

	// --- 5. Инициализация обработчика сообщений ---
	messageHandler := worker.NewHandler(appLogger, imageService, resultPublisher, cfg.PushGatewayURL)
	appLogger.Info("Message handler initialized")

	// --- 6. Запуск Consumer'а ---
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		startConsumer(ctx, appLogger, cfg.RabbitMQ, conn, messageHandler)
		appLogger.Info("RabbitMQ consumer exited")
	}()

	appLogger.Info("Illustration worker started successfully")

	// --- 7. Ожидание сигнала завершения ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down illustration worker...")

	// --- 8. Graceful Shutdown ---
	cancel()
	appLogger.Info("Waiting for background tasks to finish...")
	wg.Wait()

	appLogger.Info("Illustration worker shut down gracefully")
}

// connectRabbitMQ подключается к RabbitMQ с несколькими попытками.
func connectRabbitMQ(ctx context.Context, logger *zap.Logger, url string) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			logger.Info("RabbitMQ connected successfully", zap.Int("attempt", attempt))
			return conn, nil
		}

		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxConnectAttempts),
			zap.Error(err),
		)

		select {
		case <-time.After(connectRetryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while connecting to RabbitMQ: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxConnectAttempts, err)
}

// startConsumer запускает прослушивание очереди задач.
func startConsumer(ctx context.Context, logger *zap.Logger, cfg config.RabbitMQConfig, conn *amqp091.Connection, handler *worker.Handler) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open RabbitMQ channel for consumer", zap.Error(err))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.TaskQueue.Name,
		cfg.TaskQueue.Durable,
		cfg.TaskQueue.AutoDelete,
		cfg.TaskQueue.Exclusive,
		cfg.TaskQueue.NoWait,
		nil, // arguments
	)
	if err != nil {
		logger.Error("Failed to declare task queue", zap.String("queue", cfg.TaskQueue.Name), zap.Error(err))
		return
	}
	logger.Info("Task queue declared", zap.String("queue", q.Name), zap.Int("messages", q.Messages), zap.Int("consumers", q.Consumers))

	// Генерация тяжёлая, воркер берёт по одной задаче за раз
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("Failed to set QoS", zap.Error(err))
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		cfg.ConsumerName,
		false, // auto-ack (false, подтверждаем вручную)
		cfg.TaskQueue.Exclusive,
		false, // no-local
		cfg.TaskQueue.NoWait,
		nil,   // args
	)
	if err != nil {
		logger.Error("Failed to register consumer", zap.String("queue", q.Name), zap.Error(err))
		return
	}

	logger.Info("Consumer started, waiting for messages...")

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("Consumer channel closed by RabbitMQ")
				return
			}
			logger.Debug("Received a message", zap.Uint64("delivery_tag", msg.DeliveryTag))
			if handler.HandleDelivery(ctx, msg) {
				if ackErr := msg.Ack(false); ackErr != nil {
					logger.Error("Failed to ack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
				}
			} else {
				if nackErr := msg.Nack(false, true); nackErr != nil {
					logger.Error("Failed to nack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
				}
			}
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping consumer...")
			return
		}
	}
}

// --- RabbitMQ publisher результатов ---

type rabbitMQResultPublisher struct {
	ch        *amqp091.Channel
	queueName string
	logger    *zap.Logger
	mu        sync.Mutex
}

var _ worker.ResultPublisher = (*rabbitMQResultPublisher)(nil)

func newResultPublisher(conn *amqp091.Connection, queueName string, logger *zap.Logger) (*rabbitMQResultPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for publisher: %w", err)
	}

	// Очередь объявляют обе стороны с одинаковыми параметрами,
	// кто успел первым - тот и создал
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare result queue %s: %w", queueName, err)
	}

	return &rabbitMQResultPublisher{
		ch:        ch,
		queueName: queueName,
		logger:    logger.Named("ResultPublisher"),
	}, nil
}

func (p *rabbitMQResultPublisher) Publish(ctx context.Context, payload sharedMessaging.IllustrationResultPayload, correlationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return errors.New("publisher channel is closed")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			Body:          body,
			DeliveryMode:  amqp091.Persistent,
			Timestamp:     time.Now(),
			AppId:         "image-generator",
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Result published",
		zap.String("queue", p.queueName),
		zap.String("generationID", payload.GenerationID.String()),
		zap.String("status", string(payload.Status)))
	return nil
}

func (p *rabbitMQResultPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		err := p.ch.Close()
		p.ch = nil
		return err
	}
	return nil
}
