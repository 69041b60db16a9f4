package models

import "github.com/google/uuid"

// ClientIllustrationUpdate содержит данные для обновления состояния генерации
// на клиенте через WebSocket (топик illustrations:{projectID}).
type ClientIllustrationUpdate struct {
	GenerationID     uuid.UUID        `json:"generation_id"`
	ProjectID        uuid.UUID        `json:"project_id"`
	Status           GenerationStatus `json:"status"`
	ImageURL         *string          `json:"image_url,omitempty"`
	ErrorDetails     *string          `json:"error_details,omitempty"`
	GenerationTimeMs int64            `json:"generation_time_ms,omitempty"`
}

// ClientTextChunk — кусок потоковой генерации текста для клиента
// (топик text:{requestID}).
type ClientTextChunk struct {
	RequestID string `json:"request_id"`
	Chunk     string `json:"chunk,omitempty"`
	Done      bool   `json:"done"`
	Error     string `json:"error,omitempty"`
}

// IllustrationTopic возвращает имя ws-топика обновлений генераций проекта.
func IllustrationTopic(projectID uuid.UUID) string {
	return "illustrations:" + projectID.String()
}

// TextTopic возвращает имя ws-топика потоковой текстовой генерации.
func TextTopic(requestID uuid.UUID) string {
	return "text:" + requestID.String()
}
