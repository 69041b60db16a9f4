package models

import (
	"time"

	"github.com/google/uuid"
)

// Project — роман/рукопись пользователя. Корневая сущность для глав,
// персонажей и истории генераций иллюстраций.
type Project struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Synopsis  *string   `json:"synopsis,omitempty" db:"synopsis"` // Указатель, так как может быть NULL
	Genre     *string   `json:"genre,omitempty" db:"genre"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectSummary provides a concise view of a project, used in lists.
type ProjectSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Genre        *string   `json:"genre,omitempty"`
	ChapterCount int       `json:"chapter_count"`
	WordCount    int64     `json:"word_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
