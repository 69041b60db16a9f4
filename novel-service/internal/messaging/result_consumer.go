package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	sharedMessaging "inkwell-server/shared/messaging"
	"inkwell-server/shared/models"
)

const (
	resultConsumerTag = "novel-service-results"

	applyTimeout = 10 * time.Second

	wsMessageTypeIllustrationUpdate = "illustration_update"
)

// ResultConsumer читает статусы генераций из очереди результатов, применяет
// их к записям (переходы только вперёд) и транслирует подписчикам ws-топика
// проекта. Повторные и опоздавшие сообщения подтверждаются без изменений.
type ResultConsumer struct {
	conn           *amqp.Connection
	generationRepo interfaces.GenerationRecordRepository
	notifier       interfaces.ClientNotifier
	queueName      string
	stopChannel    chan struct{}
	logger         *zap.Logger
}

// NewResultConsumer создает консьюмера результатов генерации.
func NewResultConsumer(
	conn *amqp.Connection,
	generationRepo interfaces.GenerationRecordRepository,
	notifier interfaces.ClientNotifier,
	queueName string,
	logger *zap.Logger,
) *ResultConsumer {
	return &ResultConsumer{
		conn:           conn,
		generationRepo: generationRepo,
		notifier:       notifier,
		queueName:      queueName,
		stopChannel:    make(chan struct{}),
		logger:         logger.Named("ResultConsumer"),
	}
}

// StartConsuming начинает прослушивание очереди результатов.
// Функция блокирующая, запускается в отдельной горутине.
func (c *ResultConsumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", c.queueName, err)
	}

	// По одному сообщению за раз: статусы применяются в порядке доставки
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		resultConsumerTag,
		false, // auto-ack (подтверждаем вручную)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	c.logger.Info("Result consumer started", zap.String("queue", q.Name))
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn("RabbitMQ message channel closed")
				return nil
			}
			c.handleDelivery(d)
		case <-c.stopChannel:
			c.logger.Info("Result consumer stopping")
			return nil
		}
	}
}

// Stop останавливает консьюмер.
func (c *ResultConsumer) Stop() {
	close(c.stopChannel)
}

func (c *ResultConsumer) handleDelivery(d amqp.Delivery) {
	var payload sharedMessaging.IllustrationResultPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		c.logger.Error("Malformed result payload, dropping", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	logFields := []zap.Field{
		zap.String("generationID", payload.GenerationID.String()),
		zap.String("projectID", payload.ProjectID.String()),
		zap.String("status", string(payload.Status)),
	}
	if !models.IsValidGenerationStatus(payload.Status) || payload.Status == models.GenerationStatusPending {
		c.logger.Error("Result payload carries illegal status, dropping", logFields...)
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	err := c.generationRepo.UpdateStatus(ctx, payload.GenerationID, payload.Status, payload.ImageURL, payload.ErrorDetails)
	switch {
	case err == nil:
		c.notifier.Broadcast(models.IllustrationTopic(payload.ProjectID), wsMessageTypeIllustrationUpdate, models.ClientIllustrationUpdate{
			GenerationID:     payload.GenerationID,
			ProjectID:        payload.ProjectID,
			Status:           payload.Status,
			ImageURL:         payload.ImageURL,
			ErrorDetails:     payload.ErrorDetails,
			GenerationTimeMs: payload.GenerationTimeMs,
		})
		_ = d.Ack(false)
	case errors.Is(err, models.ErrInvalidStatusTransition):
		// Опоздавшее или повторное сообщение: запись уже ушла вперёд
		c.logger.Info("Stale result ignored", logFields...)
		_ = d.Ack(false)
	case errors.Is(err, models.ErrNotFound):
		// Проект удалили, пока воркер рисовал
		c.logger.Warn("Result for unknown generation record, dropping", logFields...)
		_ = d.Ack(false)
	default:
		c.logger.Error("Failed to apply generation result, requeueing",
			append(logFields, zap.Error(err))...)
		_ = d.Nack(false, true)
		// Пауза, чтобы не крутить очередь вхолостую при лежащей базе
		time.Sleep(time.Second)
	}
}
