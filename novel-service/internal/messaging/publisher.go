package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	sharedMessaging "inkwell-server/shared/messaging"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
)

// rabbitMQTaskPublisher публикует задачи генерации иллюстраций в очередь
// воркера. Канал amqp не рассчитан на конкурентную публикацию, поэтому
// отправка сериализуется мьютексом.
type rabbitMQTaskPublisher struct {
	channel   *amqp.Channel
	queueName string
	mu        sync.Mutex
	logger    *zap.Logger
}

var _ interfaces.IllustrationTaskPublisher = (*rabbitMQTaskPublisher)(nil)

// NewRabbitMQTaskPublisher создает паблишера и объявляет очередь задач.
// Параметры очереди должны совпадать с консьюмером в image-generator
// (durable=true).
func NewRabbitMQTaskPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitMQTaskPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("task publisher: не удалось открыть канал: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("task publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}

	logger.Info("Illustration task publisher initialized", zap.String("queue", queueName))
	return &rabbitMQTaskPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("IllustrationTaskPublisher"),
	}, nil
}

// PublishGenerationTask отправляет задачу в очередь воркера.
func (p *rabbitMQTaskPublisher) PublishGenerationTask(ctx context.Context, payload sharedMessaging.IllustrationTaskPayload) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal task payload",
			zap.String("generationID", payload.GenerationID.String()), zap.Error(err))
		return fmt.Errorf("ошибка подготовки задачи генерации: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (используем default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "novel-service",
			},
		)
		if err == nil {
			p.logger.Debug("Task published",
				zap.String("queue", p.queueName),
				zap.String("generationID", payload.GenerationID.String()),
				zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}

// Close закрывает канал RabbitMQ.
func (p *rabbitMQTaskPublisher) Close() error {
	if p.channel != nil {
		p.logger.Info("Закрытие канала RabbitMQ паблишера...")
		return p.channel.Close()
	}
	return nil
}
