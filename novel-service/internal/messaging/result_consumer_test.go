package messaging

import (
	"encoding/json"
	"errors"
	"testing"

	sharedMocks "inkwell-server/shared/interfaces/mocks"
	sharedMessaging "inkwell-server/shared/messaging"
	sharedModels "inkwell-server/shared/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fakeAcknowledger записывает, чем закончилась доставка.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func makeDelivery(t *testing.T, payload sharedMessaging.IllustrationResultPayload) (amqp.Delivery, *fakeAcknowledger) {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	ack := &fakeAcknowledger{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}, ack
}

func newTestConsumer(generationRepo *sharedMocks.GenerationRecordRepository, notifier *sharedMocks.ClientNotifier) *ResultConsumer {
	return NewResultConsumer(nil, generationRepo, notifier, "test_results", zap.NewNop())
}

// TestHandleDelivery tests how generation results are applied and acknowledged
func TestHandleDelivery(t *testing.T) {
	generationID := uuid.New()
	projectID := uuid.New()

	t.Run("Completed result updates the record and notifies subscribers", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		imageURL := "http://localhost:8081/images/" + generationID.String() + ".png"
		payload := sharedMessaging.IllustrationResultPayload{
			GenerationID:     generationID,
			ProjectID:        projectID,
			Status:           sharedModels.GenerationStatusCompleted,
			ImageURL:         &imageURL,
			GenerationTimeMs: 8421,
		}
		delivery, ack := makeDelivery(t, payload)

		mockRepo.On("UpdateStatus", mock.Anything, generationID, sharedModels.GenerationStatusCompleted, &imageURL, (*string)(nil)).
			Return(nil).Once()
		mockNotifier.On("Broadcast",
			sharedModels.IllustrationTopic(projectID),
			"illustration_update",
			mock.MatchedBy(func(u sharedModels.ClientIllustrationUpdate) bool {
				assert.Equal(t, generationID, u.GenerationID)
				assert.Equal(t, sharedModels.GenerationStatusCompleted, u.Status)
				assert.Equal(t, &imageURL, u.ImageURL)
				assert.Equal(t, int64(8421), u.GenerationTimeMs)
				return true
			})).Once()

		consumer.handleDelivery(delivery)

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		mockRepo.AssertExpectations(t)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("Failed result carries the error to subscribers", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		details := "image api returned 500"
		payload := sharedMessaging.IllustrationResultPayload{
			GenerationID: generationID,
			ProjectID:    projectID,
			Status:       sharedModels.GenerationStatusFailed,
			ErrorDetails: &details,
		}
		delivery, ack := makeDelivery(t, payload)

		mockRepo.On("UpdateStatus", mock.Anything, generationID, sharedModels.GenerationStatusFailed, (*string)(nil), &details).
			Return(nil).Once()
		mockNotifier.On("Broadcast", mock.Anything, "illustration_update", mock.MatchedBy(func(u sharedModels.ClientIllustrationUpdate) bool {
			return u.Status == sharedModels.GenerationStatusFailed && u.ErrorDetails != nil
		})).Once()

		consumer.handleDelivery(delivery)

		assert.True(t, ack.acked)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Stale result is acked without broadcast", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		// processing пришёл после completed: запись уже ушла вперёд
		payload := sharedMessaging.IllustrationResultPayload{
			GenerationID: generationID,
			ProjectID:    projectID,
			Status:       sharedModels.GenerationStatusProcessing,
		}
		delivery, ack := makeDelivery(t, payload)

		mockRepo.On("UpdateStatus", mock.Anything, generationID, sharedModels.GenerationStatusProcessing, (*string)(nil), (*string)(nil)).
			Return(sharedModels.ErrInvalidStatusTransition).Once()

		consumer.handleDelivery(delivery)

		// Повтор не нужен, сообщение выполнило свою роль
		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		mockNotifier.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Result for a deleted record is dropped", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		payload := sharedMessaging.IllustrationResultPayload{
			GenerationID: generationID,
			ProjectID:    projectID,
			Status:       sharedModels.GenerationStatusCompleted,
		}
		delivery, ack := makeDelivery(t, payload)

		mockRepo.On("UpdateStatus", mock.Anything, generationID, sharedModels.GenerationStatusCompleted, (*string)(nil), (*string)(nil)).
			Return(sharedModels.ErrNotFound).Once()

		consumer.handleDelivery(delivery)

		assert.True(t, ack.acked)
		mockNotifier.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Backend failure requeues the delivery", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		payload := sharedMessaging.IllustrationResultPayload{
			GenerationID: generationID,
			ProjectID:    projectID,
			Status:       sharedModels.GenerationStatusCompleted,
		}
		delivery, ack := makeDelivery(t, payload)

		mockRepo.On("UpdateStatus", mock.Anything, generationID, sharedModels.GenerationStatusCompleted, (*string)(nil), (*string)(nil)).
			Return(errors.New("connection refused")).Once()

		consumer.handleDelivery(delivery)

		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
		mockNotifier.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Malformed payload is dropped without requeue", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		ack := &fakeAcknowledger{}
		delivery := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("{не json")}

		consumer.handleDelivery(delivery)

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Illegal status values are dropped", func(t *testing.T) {
		mockRepo := new(sharedMocks.GenerationRecordRepository)
		mockNotifier := new(sharedMocks.ClientNotifier)
		consumer := newTestConsumer(mockRepo, mockNotifier)

		for _, status := range []sharedModels.GenerationStatus{sharedModels.GenerationStatusPending, "drawing"} {
			payload := sharedMessaging.IllustrationResultPayload{
				GenerationID: generationID,
				ProjectID:    projectID,
				Status:       status,
			}
			delivery, ack := makeDelivery(t, payload)

			consumer.handleDelivery(delivery)

			assert.True(t, ack.nacked, string(status))
			assert.False(t, ack.requeue, string(status))
		}
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
