package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

// Имя уникального constraint на паре (root_version_id, version_number),
// должно совпадать с миграцией.
const versionNumberConstraint = "version_nodes_root_number_key"

const versionNodeColumns = `
	id, project_id, version_type, version_number,
	parent_version_id, root_version_id, branch_name, status, linked_generation_id,
	title, description, tags, created_at, updated_at, ai_parameters,
	width, height, generation_time_ms, file_size_bytes,
	view_count, like_count, export_count
`

const createVersionNodeQuery = `
INSERT INTO version_nodes (
	id, project_id, version_type, version_number,
	parent_version_id, root_version_id, branch_name, status, linked_generation_id,
	title, description, tags, created_at, updated_at, ai_parameters,
	width, height, generation_time_ms, file_size_bytes,
	view_count, like_count, export_count
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
`

const getVersionNodeByIDQuery = `
SELECT ` + versionNodeColumns + `
FROM version_nodes
WHERE id = $1
`

const updateVersionNodeStatusQuery = `
UPDATE version_nodes
SET status = $2, updated_at = $3
WHERE id = $1
`

// Дописывает только отсутствующие теги, сохраняя порядок добавления.
const addVersionNodeTagsQuery = `
UPDATE version_nodes
SET tags = tags || COALESCE(
        (SELECT array_agg(t ORDER BY ord)
           FROM unnest($2::text[]) WITH ORDINALITY AS u(t, ord)
          WHERE NOT (t = ANY (version_nodes.tags))),
        '{}'),
    updated_at = $3
WHERE id = $1
`

const setVersionNodeBranchNameQuery = `
UPDATE version_nodes
SET branch_name = $2, updated_at = $3
WHERE id = $1
`

const linkVersionNodeGenerationQuery = `
UPDATE version_nodes
SET linked_generation_id = $2, updated_at = $3
WHERE id = $1
`

const listVersionNodesByRootQuery = `
SELECT ` + versionNodeColumns + `
FROM version_nodes
WHERE root_version_id = $1
ORDER BY created_at ASC, id ASC
`

const listVersionNodesByProjectQuery = `
SELECT ` + versionNodeColumns + `
FROM version_nodes
WHERE project_id = $1
ORDER BY created_at ASC, id ASC
`

type pgVersionNodeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.VersionNodeRepository = (*pgVersionNodeRepository)(nil)

// NewPgVersionNodeRepository создает репозиторий графа версий поверх PostgreSQL.
func NewPgVersionNodeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.VersionNodeRepository {
	return &pgVersionNodeRepository{
		db:     db,
		logger: logger.Named("PgVersionNodeRepo"),
	}
}

// Create inserts a fully prepared node. A duplicate (root_version_id,
// version_number) pair surfaces as models.ErrVersionNumberConflict so the
// service layer can recompute the number and retry.
func (r *pgVersionNodeRepository) Create(ctx context.Context, node *models.VersionNode) error {
	logFields := []zap.Field{
		zap.String("versionNodeID", node.ID.String()),
		zap.String("projectID", node.ProjectID.String()),
		zap.String("versionNumber", node.VersionNumber.String()),
	}

	_, err := r.db.Exec(ctx, createVersionNodeQuery,
		node.ID,
		node.ProjectID,
		string(node.Type),
		node.VersionNumber,
		node.ParentVersionID,
		node.RootVersionID,
		node.BranchName,
		string(node.Status),
		node.LinkedGenerationID,
		node.Metadata.Title,
		node.Metadata.Description,
		pq.Array(node.Metadata.Tags),
		node.Metadata.CreatedAt,
		node.Metadata.UpdatedAt,
		node.Metadata.AIParameters,
		node.Metadata.Width,
		node.Metadata.Height,
		node.Metadata.GenerationTimeMs,
		node.Metadata.FileSizeBytes,
		node.Metadata.ViewCount,
		node.Metadata.LikeCount,
		node.Metadata.ExportCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if pgErr.ConstraintName == versionNumberConstraint {
				r.logger.Warn("Version number already taken in lineage",
					append(logFields, zap.String("rootVersionID", node.RootVersionID.String()))...)
				return models.ErrVersionNumberConflict
			}
			r.logger.Warn("Unique constraint violation on version node insert",
				append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
			return fmt.Errorf("unique constraint violation creating version node: %w", err)
		}
		r.logger.Error("Failed to create version node", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create version node: %w", err)
	}

	r.logger.Info("Version node created", logFields...)
	return nil
}

// GetByID возвращает узел или models.ErrNotFound.
func (r *pgVersionNodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VersionNode, error) {
	row := r.db.QueryRow(ctx, getVersionNodeByIDQuery, id)
	node, err := scanVersionNode(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Version node not found", zap.String("versionNodeID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get version node", zap.String("versionNodeID", id.String()), zap.Error(err))
		return nil, err
	}
	return node, nil
}

// UpdateStatus меняет пользовательский статус узла.
func (r *pgVersionNodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VersionStatus) error {
	logFields := []zap.Field{zap.String("versionNodeID", id.String()), zap.String("status", string(status))}

	cmdTag, err := r.db.Exec(ctx, updateVersionNodeStatusQuery, id, string(status), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update version node status", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update version node status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Version node not found for status update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Version node status updated", logFields...)
	return nil
}

// AddTags дописывает теги к узлу. Уже присутствующие игнорируются.
func (r *pgVersionNodeRepository) AddTags(ctx context.Context, id uuid.UUID, tags []string) error {
	logFields := []zap.Field{zap.String("versionNodeID", id.String()), zap.Strings("tags", tags)}

	cmdTag, err := r.db.Exec(ctx, addVersionNodeTagsQuery, id, pq.Array(dedupeTags(tags)), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to add version node tags", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to add version node tags: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Version node not found for tag update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Debug("Version node tags added", logFields...)
	return nil
}

// SetBranchName задаёт имя ветки узла.
func (r *pgVersionNodeRepository) SetBranchName(ctx context.Context, id uuid.UUID, name string) error {
	logFields := []zap.Field{zap.String("versionNodeID", id.String()), zap.String("branchName", name)}

	cmdTag, err := r.db.Exec(ctx, setVersionNodeBranchNameQuery, id, name, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to set version node branch name", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to set version node branch name: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Version node not found for branch name update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Version node branch name set", logFields...)
	return nil
}

// LinkGeneration привязывает узел к записи генерации.
func (r *pgVersionNodeRepository) LinkGeneration(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error {
	logFields := []zap.Field{
		zap.String("versionNodeID", id.String()),
		zap.String("generationID", generationID.String()),
	}

	cmdTag, err := r.db.Exec(ctx, linkVersionNodeGenerationQuery, id, generationID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to link version node to generation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to link version node to generation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Version node not found for generation link", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Version node linked to generation", logFields...)
	return nil
}

// ListByRoot returns the flattened lineage tree of a root node.
func (r *pgVersionNodeRepository) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]models.VersionNode, error) {
	return r.list(ctx, listVersionNodesByRootQuery, rootID, zap.String("rootVersionID", rootID.String()))
}

// ListByProject returns every version node of a project.
func (r *pgVersionNodeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.VersionNode, error) {
	return r.list(ctx, listVersionNodesByProjectQuery, projectID, zap.String("projectID", projectID.String()))
}

func (r *pgVersionNodeRepository) list(ctx context.Context, query string, arg uuid.UUID, logField zap.Field) ([]models.VersionNode, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to query version nodes", logField, zap.Error(err))
		return nil, fmt.Errorf("failed to query version nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]models.VersionNode, 0)
	for rows.Next() {
		node, err := scanVersionNode(rows)
		if err != nil {
			r.logger.Error("Failed to scan version node row", logField, zap.Error(err))
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating version node rows", logField, zap.Error(err))
		return nil, fmt.Errorf("error iterating version node rows: %w", err)
	}

	r.logger.Debug("Listed version nodes", logField, zap.Int("count", len(nodes)))
	return nodes, nil
}

// scanVersionNode читает одну строку version_nodes в модель.
func scanVersionNode(row pgx.Row) (*models.VersionNode, error) {
	node := &models.VersionNode{}
	var (
		versionType string
		status      string
		tags        pq.StringArray
		aiParams    []byte
	)

	err := row.Scan(
		&node.ID,
		&node.ProjectID,
		&versionType,
		&node.VersionNumber,
		&node.ParentVersionID,
		&node.RootVersionID,
		&node.BranchName,
		&status,
		&node.LinkedGenerationID,
		&node.Metadata.Title,
		&node.Metadata.Description,
		&tags,
		&node.Metadata.CreatedAt,
		&node.Metadata.UpdatedAt,
		&aiParams,
		&node.Metadata.Width,
		&node.Metadata.Height,
		&node.Metadata.GenerationTimeMs,
		&node.Metadata.FileSizeBytes,
		&node.Metadata.ViewCount,
		&node.Metadata.LikeCount,
		&node.Metadata.ExportCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan version node: %w", err)
	}

	// Неизвестные типы не роняют чтение: узел остаётся с пустым типом.
	node.Type = models.NormalizeVersionType(versionType)
	node.Status = models.VersionStatus(status)
	node.Metadata.Tags = []string(tags)
	node.Metadata.AIParameters = aiParams
	return node, nil
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
