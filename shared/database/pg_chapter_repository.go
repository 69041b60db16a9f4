package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const chapterColumns = `id, project_id, title, content, position, word_count, created_at, updated_at`

const createChapterQuery = `
INSERT INTO chapters (id, project_id, title, content, position, word_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const getChapterByIDQuery = `
SELECT ` + chapterColumns + `
FROM chapters
WHERE id = $1
`

const updateChapterQuery = `
UPDATE chapters
SET title = $2, content = $3, word_count = $4, updated_at = $5
WHERE id = $1
`

const deleteChapterQuery = `
DELETE FROM chapters
WHERE id = $1
`

const listChaptersByProjectQuery = `
SELECT ` + chapterColumns + `
FROM chapters
WHERE project_id = $1
ORDER BY position ASC
`

const listChapterIDsByProjectQuery = `
SELECT id FROM chapters WHERE project_id = $1
`

// Позиция берётся из порядкового номера id в переданном массиве (0-based).
const reorderChaptersQuery = `
UPDATE chapters AS c
SET position = u.ord - 1, updated_at = $3
FROM unnest($2::uuid[]) WITH ORDINALITY AS u(id, ord)
WHERE c.id = u.id AND c.project_id = $1
`

type pgChapterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

// NewPgChapterRepository создает репозиторий глав поверх PostgreSQL.
func NewPgChapterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{
		db:     db,
		logger: logger.Named("PgChapterRepo"),
	}
}

func (r *pgChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	logFields := []zap.Field{
		zap.String("chapterID", chapter.ID.String()),
		zap.String("projectID", chapter.ProjectID.String()),
		zap.Int("position", chapter.Position),
	}

	_, err := r.db.Exec(ctx, createChapterQuery,
		chapter.ID,
		chapter.ProjectID,
		chapter.Title,
		chapter.Content,
		chapter.Position,
		chapter.WordCount,
		chapter.CreatedAt,
		chapter.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create chapter", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create chapter: %w", err)
	}

	r.logger.Info("Chapter created", logFields...)
	return nil
}

func (r *pgChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	row := r.db.QueryRow(ctx, getChapterByIDQuery, id)
	chapter, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Chapter not found", zap.String("chapterID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get chapter", zap.String("chapterID", id.String()), zap.Error(err))
		return nil, err
	}
	return chapter, nil
}

// Update сохраняет заголовок и текст главы. Position меняется только через Reorder.
func (r *pgChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	logFields := []zap.Field{zap.String("chapterID", chapter.ID.String())}

	cmdTag, err := r.db.Exec(ctx, updateChapterQuery,
		chapter.ID,
		chapter.Title,
		chapter.Content,
		chapter.WordCount,
		chapter.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update chapter", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Chapter not found for update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Chapter updated", logFields...)
	return nil
}

func (r *pgChapterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logFields := []zap.Field{zap.String("chapterID", id.String())}

	cmdTag, err := r.db.Exec(ctx, deleteChapterQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete chapter", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Chapter not found for delete", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Chapter deleted", logFields...)
	return nil
}

func (r *pgChapterRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Chapter, error) {
	logFields := []zap.Field{zap.String("projectID", projectID.String())}

	rows, err := r.db.Query(ctx, listChaptersByProjectQuery, projectID)
	if err != nil {
		r.logger.Error("Failed to query chapters", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	chapters := make([]models.Chapter, 0)
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			r.logger.Error("Failed to scan chapter row", append(logFields, zap.Error(err))...)
			return nil, err
		}
		chapters = append(chapters, *chapter)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating chapter rows", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error iterating chapter rows: %w", err)
	}

	r.logger.Debug("Listed chapters", append(logFields, zap.Int("count", len(chapters)))...)
	return chapters, nil
}

// Reorder переставляет главы проекта одним запросом. orderedIDs обязан быть
// полной перестановкой глав проекта, иначе возвращается models.ErrInvalidInput
// и порядок не меняется.
func (r *pgChapterRepository) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	logFields := []zap.Field{zap.String("projectID", projectID.String()), zap.Int("count", len(orderedIDs))}

	rows, err := r.db.Query(ctx, listChapterIDsByProjectQuery, projectID)
	if err != nil {
		r.logger.Error("Failed to query chapter ids for reorder", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to query chapter ids: %w", err)
	}
	defer rows.Close()

	existing := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan chapter id", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to scan chapter id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating chapter ids", append(logFields, zap.Error(err))...)
		return fmt.Errorf("error iterating chapter ids: %w", err)
	}

	if len(orderedIDs) != len(existing) {
		r.logger.Warn("Reorder list does not cover all chapters",
			append(logFields, zap.Int("existing", len(existing)))...)
		return models.ErrInvalidInput
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := existing[id]; !ok {
			r.logger.Warn("Reorder list references foreign chapter",
				append(logFields, zap.String("chapterID", id.String()))...)
			return models.ErrInvalidInput
		}
		if _, dup := seen[id]; dup {
			r.logger.Warn("Reorder list contains duplicate chapter",
				append(logFields, zap.String("chapterID", id.String()))...)
			return models.ErrInvalidInput
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		ids[i] = id.String()
	}
	cmdTag, err := r.db.Exec(ctx, reorderChaptersQuery, projectID, pq.Array(ids), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to reorder chapters", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to reorder chapters: %w", err)
	}
	if cmdTag.RowsAffected() != int64(len(orderedIDs)) {
		r.logger.Warn("Reorder touched unexpected row count",
			append(logFields, zap.Int64("rowsAffected", cmdTag.RowsAffected()))...)
	}

	r.logger.Info("Chapters reordered", logFields...)
	return nil
}

func scanChapter(row pgx.Row) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	err := row.Scan(
		&chapter.ID,
		&chapter.ProjectID,
		&chapter.Title,
		&chapter.Content,
		&chapter.Position,
		&chapter.WordCount,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan chapter: %w", err)
	}
	return chapter, nil
}
