package interfaces

import (
	"context"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
)

// VersionNodeRepository defines the interface for the illustration version
// graph store. Nodes are never deleted; identity fields are immutable after
// Create, only status and metadata fields are mutated afterwards.
//
//go:generate mockery --name VersionNodeRepository --output ./mocks --outpkg mocks --case=underscore
type VersionNodeRepository interface {
	// Create inserts a fully prepared node. The (root_version_id,
	// version_number) pair is guarded by a unique index; a collision is
	// returned as models.ErrVersionNumberConflict so the caller can retry
	// with a freshly computed number.
	Create(ctx context.Context, node *models.VersionNode) error

	// GetByID возвращает узел или models.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.VersionNode, error)

	// UpdateStatus меняет пользовательский статус узла без каскадов:
	// вытеснение вычисляется при чтении, а не хранится.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.VersionStatus) error

	// AddTags добавляет теги к узлу (дубликаты игнорируются).
	AddTags(ctx context.Context, id uuid.UUID, tags []string) error

	// SetBranchName задаёт имя ветки узла.
	SetBranchName(ctx context.Context, id uuid.UUID, name string) error

	// LinkGeneration привязывает узел к записи генерации. Привязка делает
	// узел авторитетным кандидатом при обогащении.
	LinkGeneration(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error

	// ListByRoot returns the flattened lineage tree, order unspecified.
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]models.VersionNode, error)

	// ListByProject returns every node of the project, the snapshot input
	// for lineage resolution and enrichment.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.VersionNode, error)
}
