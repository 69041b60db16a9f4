package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"inkwell-server/image-generator/internal/service"
	sharedMessaging "inkwell-server/shared/messaging"
	"inkwell-server/shared/models"
)

// Определяем метрики Prometheus
var (
	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_generator_tasks_processed_total",
			Help: "Total number of illustration generation tasks processed.",
		},
		[]string{"status"}, // "success", "error_generation", "error_publish", "error_unmarshal"
	)
	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_generator_task_duration_seconds",
		Help:    "Duration of illustration generation task processing.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s .. 128s
	})
	imageAPIErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_generator_api_errors_total",
		Help: "Total number of errors calling the image API.",
	})
	saveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_generator_save_errors_total",
		Help: "Total number of errors saving the generated image.",
	})
	publishResultErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_generator_publish_result_errors_total",
		Help: "Total number of errors publishing task results.",
	})
)

// ResultPublisher отправляет статусы генерации обратно в novel-service.
type ResultPublisher interface {
	Publish(ctx context.Context, payload sharedMessaging.IllustrationResultPayload, correlationID string) error
}

// Handler обрабатывает входящие сообщения очереди задач.
type Handler struct {
	logger          *zap.Logger
	imageService    service.ImageGenerationService
	resultPublisher ResultPublisher
	pusher          *push.Pusher
}

// NewHandler создает новый экземпляр Handler.
func NewHandler(
	logger *zap.Logger,
	imageService service.ImageGenerationService,
	resultPublisher ResultPublisher,
	pushGatewayURL string,
) *Handler {
	if resultPublisher == nil {
		logger.Fatal("Result publisher cannot be nil for illustration worker handler")
	}

	// Воркер не держит HTTP сервера, метрики уходят через Pushgateway
	hostname, _ := os.Hostname()
	pusher := push.New(pushGatewayURL, "image-generator").
		Grouping("instance", hostname).
		Gatherer(prometheus.DefaultGatherer)

	logger.Info("Prometheus Pusher initialized", zap.String("url", pushGatewayURL), zap.String("instance", hostname))

	return &Handler{
		logger:          logger,
		imageService:    imageService,
		resultPublisher: resultPublisher,
		pusher:          pusher,
	}
}

// HandleDelivery обрабатывает одну задачу генерации иллюстрации.
// Возвращает true, если сообщение должно быть подтверждено (ack),
// false - вернуть в очередь (nack + requeue).
func (h *Handler) HandleDelivery(ctx context.Context, msg amqp091.Delivery) bool {
	defer func() {
		if err := h.pusher.Push(); err != nil {
			h.logger.Error("Failed to push metrics to Pushgateway", zap.Error(err))
		}
	}()

	var task sharedMessaging.IllustrationTaskPayload
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		h.logger.Error("Failed to unmarshal task payload",
			zap.Error(err),
			zap.String("correlation_id", msg.CorrelationId),
			zap.ByteString("body", msg.Body))
		tasksProcessed.WithLabelValues("error_unmarshal").Inc()
		// Сообщение, которое невозможно разобрать, не станет понятнее после requeue
		return true
	}

	log := h.logger.With(
		zap.String("generation_id", task.GenerationID.String()),
		zap.String("project_id", task.ProjectID.String()),
		zap.String("correlation_id", msg.CorrelationId),
	)
	log.Info("Received illustration generation task")

	// Сразу сообщаем, что задача взята в работу: клиент показывает прогресс
	processingPayload := sharedMessaging.IllustrationResultPayload{
		GenerationID: task.GenerationID,
		ProjectID:    task.ProjectID,
		Status:       models.GenerationStatusProcessing,
	}
	if pubErr := h.resultPublisher.Publish(ctx, processingPayload, msg.CorrelationId); pubErr != nil {
		// Не критично: терминальный статус перекроет pending напрямую
		log.Warn("Failed to publish processing status", zap.Error(pubErr))
		publishResultErrors.Inc()
	}

	taskStartTime := time.Now()
	generationResult := h.imageService.GenerateAndStoreImage(ctx, task)
	elapsed := time.Since(taskStartTime)
	taskDuration.Observe(elapsed.Seconds())

	if generationResult.Error != nil && ctx.Err() != nil {
		// Воркер останавливается посреди генерации: задачу вернём в очередь,
		// статус failed не публикуем
		log.Warn("Generation interrupted by shutdown, requeueing task")
		return false
	}

	resultPayload := sharedMessaging.IllustrationResultPayload{
		GenerationID:     task.GenerationID,
		ProjectID:        task.ProjectID,
		GenerationTimeMs: elapsed.Milliseconds(),
	}

	if generationResult.Error != nil {
		log.Error("Failed to generate and store illustration", zap.Error(generationResult.Error))
		switch {
		case errors.Is(generationResult.Error, service.ErrImageSaveFailed):
			saveErrors.Inc()
		case errors.Is(generationResult.Error, service.ErrImageGenerationFailed):
			imageAPIErrors.Inc()
		}
		tasksProcessed.WithLabelValues("error_generation").Inc()

		resultPayload.Status = models.GenerationStatusFailed
		resultPayload.ErrorDetails = ptrString(generationResult.Error.Error())
	} else {
		tasksProcessed.WithLabelValues("success").Inc()
		resultPayload.Status = models.GenerationStatusCompleted
		resultPayload.ImageURL = ptrString(generationResult.ImageURL)
	}

	if pubErr := h.resultPublisher.Publish(ctx, resultPayload, msg.CorrelationId); pubErr != nil {
		log.Error("Failed to publish generation result", zap.Error(pubErr))
		publishResultErrors.Inc()
		tasksProcessed.WithLabelValues("error_publish").Inc()
		// Без результата novel-service навсегда оставит запись в processing,
		// поэтому задачу возвращаем в очередь
		return false
	}

	log.Info("Task processed and result published",
		zap.String("status", string(resultPayload.Status)),
		zap.Duration("duration", elapsed))
	return true
}

func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
