package messaging

import (
	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

// IllustrationTaskPayload - структура сообщения для задачи генерации иллюстрации.
// novel-service создаёт GenerationRecord (pending) и кладёт задачу в очередь;
// воркер не имеет доступа к БД и работает только с этим payload.
type IllustrationTaskPayload struct {
	GenerationID uuid.UUID `json:"generationId"` // ID записи генерации
	ProjectID    uuid.UUID `json:"projectId"`
	Prompt       string    `json:"prompt"`             // Итоговый промпт (enhanced, если был)
	Provider     string    `json:"provider,omitempty"` // Image-провайдер
	Model        string    `json:"model,omitempty"`    // Модель image-провайдера
	Width        int       `json:"width"`
	Height       int       `json:"height"`
}

// IllustrationResultPayload - сообщение о ходе/результате генерации.
// Воркер шлёт processing при взятии задачи и терминальный статус после
// вызова image API; консьюмер novel-service применяет переходы только вперёд,
// поэтому опоздавшие или повторные сообщения безвредны.
type IllustrationResultPayload struct {
	GenerationID     uuid.UUID               `json:"generationId"`
	ProjectID        uuid.UUID               `json:"projectId"`
	Status           models.GenerationStatus `json:"status"`
	ImageURL         *string                 `json:"imageUrl,omitempty"`
	ErrorDetails     *string                 `json:"errorDetails,omitempty"`
	GenerationTimeMs int64                   `json:"generationTimeMs,omitempty"`
}
