package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chapter — глава рукописи. Position задаёт плотный порядок внутри проекта
// (0..n-1); перестановка глав выполняется одним батчем.
type Chapter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Position  int       `json:"position" db:"position"`
	WordCount int       `json:"word_count" db:"word_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CountWords возвращает число слов в тексте главы.
// Считаем по пробельным разделителям — хватает для счётчика в редакторе.
func CountWords(content string) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}
	return len(strings.Fields(content))
}
