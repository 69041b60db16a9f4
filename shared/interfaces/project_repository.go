package interfaces

import (
	"context"
	"errors"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

// ErrInvalidCursor сигнализирует о некорректном формате курсора пагинации.
var ErrInvalidCursor = errors.New("invalid cursor format")

//go:generate mockery --name ProjectRepository --output ./mocks --outpkg mocks --case=underscore
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error

	// Delete удаляет проект вместе с главами, персонажами и историей
	// генераций (каскад на уровне схемы).
	Delete(ctx context.Context, id uuid.UUID) error

	// List возвращает проекты с курсорной пагинацией, свежие сверху.
	// cursor - непрозрачная строка, полученная из предыдущего вызова.
	// Возвращает список, следующий курсор (пустой, если больше нет) и ошибку.
	List(ctx context.Context, limit int, cursor string) ([]models.Project, string, error)
}
