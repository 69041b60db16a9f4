package interfaces

import (
	"context"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

//go:generate mockery --name ChapterRepository --output ./mocks --outpkg mocks --case=underscore
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProject возвращает главы проекта в порядке position.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Chapter, error)

	// Reorder переставляет главы проекта одним батчем. orderedIDs должен
	// содержать все главы проекта ровно по одному разу.
	Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error
}
