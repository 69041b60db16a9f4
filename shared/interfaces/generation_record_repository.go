package interfaces

import (
	"context"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

// GenerationRecordRepository defines the interface for the immutable
// generation history. Records are written by the generation pipeline; the
// version subsystem only reads them.
//
//go:generate mockery --name GenerationRecordRepository --output ./mocks --outpkg mocks --case=underscore
type GenerationRecordRepository interface {
	// Create сохраняет новую запись со статусом pending.
	Create(ctx context.Context, record *models.GenerationRecord) error

	// GetByID возвращает запись или models.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationRecord, error)

	// UpdateStatus advances the forward-only status and attaches the result
	// fields. A backward transition returns models.ErrInvalidStatusTransition
	// and leaves the row untouched.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.GenerationStatus, imageURL *string, errorMessage *string) error

	// ListByProject returns the generation history of a project, newest
	// first, optionally scoped to one character.
	ListByProject(ctx context.Context, projectID uuid.UUID, characterID *uuid.UUID, limit, offset int) ([]models.GenerationRecord, error)
}
