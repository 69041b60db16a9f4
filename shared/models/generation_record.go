package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus — статус попытки генерации иллюстрации.
// Переходы только вперёд: pending -> processing -> completed | failed.
type GenerationStatus string

const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// IsValidGenerationStatus проверяет значение статуса.
func IsValidGenerationStatus(s GenerationStatus) bool {
	switch s {
	case GenerationStatusPending, GenerationStatusProcessing, GenerationStatusCompleted, GenerationStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// CanTransitionTo enforces the forward-only status order.
func (s GenerationStatus) CanTransitionTo(next GenerationStatus) bool {
	switch s {
	case GenerationStatusPending:
		return next == GenerationStatusProcessing || next == GenerationStatusCompleted || next == GenerationStatusFailed
	case GenerationStatusProcessing:
		return next == GenerationStatusCompleted || next == GenerationStatusFailed
	default:
		return false
	}
}

// GenerationRecord — неизменяемая запись одной попытки генерации.
// Создаётся пайплайном генерации; подсистема версий её только читает.
// Мутируется только status (строго вперёд) вместе с полями результата.
type GenerationRecord struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	ProjectID      uuid.UUID        `json:"project_id" db:"project_id"`
	CharacterID    *uuid.UUID       `json:"character_id,omitempty" db:"character_id"`
	OriginalPrompt string           `json:"original_prompt" db:"original_prompt"`
	EnhancedPrompt *string          `json:"enhanced_prompt,omitempty" db:"enhanced_prompt"`
	Provider       string           `json:"provider" db:"provider"`
	Model          string           `json:"model" db:"model"`
	IsFree         bool             `json:"is_free" db:"is_free"`
	Status         GenerationStatus `json:"status" db:"status"`
	Width          int              `json:"width" db:"width"`
	Height         int              `json:"height" db:"height"`
	ImageURL       *string          `json:"image_url,omitempty" db:"image_url"`   // Ровно одно из ImageURL/ImagePath заполнено после completed
	ImagePath      *string          `json:"image_path,omitempty" db:"image_path"` // Локальный путь для сохранённых на диск изображений
	ErrorMessage   *string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// ImageLocation returns whichever half of the URL/path union is set.
func (g *GenerationRecord) ImageLocation() string {
	if g.ImageURL != nil {
		return *g.ImageURL
	}
	if g.ImagePath != nil {
		return *g.ImagePath
	}
	return ""
}
