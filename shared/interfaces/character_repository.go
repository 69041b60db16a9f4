package interfaces

import (
	"context"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

//go:generate mockery --name CharacterRepository --output ./mocks --outpkg mocks --case=underscore
type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error)
	Update(ctx context.Context, character *models.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Character, error)

	// SetPortrait привязывает запись генерации как текущий портрет персонажа.
	SetPortrait(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error
}
