package models

import (
	"time"

	"github.com/google/uuid"
)

// Character — персонаж проекта. PortraitGenerationID ссылается на запись
// генерации, выбранную как текущий портрет (иллюстрация живёт в графе версий).
type Character struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	ProjectID            uuid.UUID  `json:"project_id" db:"project_id"`
	Name                 string     `json:"name" db:"name"`
	Description          *string    `json:"description,omitempty" db:"description"`
	Appearance           *string    `json:"appearance,omitempty" db:"appearance"` // Внешность — исходный материал для промпта портрета
	Notes                *string    `json:"notes,omitempty" db:"notes"`
	PortraitGenerationID *uuid.UUID `json:"portrait_generation_id,omitempty" db:"portrait_generation_id"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}
