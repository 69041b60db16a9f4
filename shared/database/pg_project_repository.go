package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
	"inkwell-server/shared/utils"
)

const projectColumns = `id, title, synopsis, genre, created_at, updated_at`

const createProjectQuery = `
INSERT INTO projects (id, title, synopsis, genre, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

const getProjectByIDQuery = `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1
`

const updateProjectQuery = `
UPDATE projects
SET title = $2, synopsis = $3, genre = $4, updated_at = $5
WHERE id = $1
`

const deleteProjectQuery = `
DELETE FROM projects
WHERE id = $1
`

type pgProjectRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.ProjectRepository = (*pgProjectRepository)(nil)

// NewPgProjectRepository создает репозиторий проектов поверх PostgreSQL.
func NewPgProjectRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProjectRepository {
	return &pgProjectRepository{
		db:     db,
		logger: logger.Named("PgProjectRepo"),
	}
}

func (r *pgProjectRepository) Create(ctx context.Context, project *models.Project) error {
	logFields := []zap.Field{zap.String("projectID", project.ID.String()), zap.String("title", project.Title)}

	_, err := r.db.Exec(ctx, createProjectQuery,
		project.ID,
		project.Title,
		project.Synopsis,
		project.Genre,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Info("Project created", logFields...)
	return nil
}

func (r *pgProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := r.db.QueryRow(ctx, getProjectByIDQuery, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Project not found", zap.String("projectID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get project", zap.String("projectID", id.String()), zap.Error(err))
		return nil, err
	}
	return project, nil
}

func (r *pgProjectRepository) Update(ctx context.Context, project *models.Project) error {
	logFields := []zap.Field{zap.String("projectID", project.ID.String())}

	cmdTag, err := r.db.Exec(ctx, updateProjectQuery,
		project.ID,
		project.Title,
		project.Synopsis,
		project.Genre,
		project.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update project", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update project: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Project not found for update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Project updated", logFields...)
	return nil
}

func (r *pgProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logFields := []zap.Field{zap.String("projectID", id.String())}

	cmdTag, err := r.db.Exec(ctx, deleteProjectQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete project", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Project not found for delete", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Project deleted", logFields...)
	return nil
}

// List возвращает страницу проектов (свежие по updated_at сверху) и курсор
// следующей страницы. Пустой курсор на входе означает чтение с начала.
func (r *pgProjectRepository) List(ctx context.Context, limit int, cursor string) ([]models.Project, string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Читаем на один элемент больше, чтобы понять, есть ли следующая страница.
	fetchLimit := limit + 1

	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		r.logger.Warn("Invalid cursor provided for project list", zap.String("cursor", cursor), zap.Error(err))
		return nil, "", interfaces.ErrInvalidCursor
	}

	query := `SELECT ` + projectColumns + ` FROM projects `
	args := []interface{}{}
	if !cursorTime.IsZero() && cursorID != uuid.Nil {
		query += `WHERE (updated_at, id) < ($1, $2) `
		args = append(args, cursorTime, cursorID)
	}
	query += fmt.Sprintf("ORDER BY updated_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, fetchLimit)

	logFields := []zap.Field{zap.String("cursor", cursor), zap.Int("limit", limit)}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query projects", append(logFields, zap.Error(err))...)
		return nil, "", fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0, fetchLimit)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project row", append(logFields, zap.Error(err))...)
			return nil, "", err
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating project rows", append(logFields, zap.Error(err))...)
		return nil, "", fmt.Errorf("error iterating project rows: %w", err)
	}

	var nextCursor string
	if len(projects) == fetchLimit {
		projects = projects[:limit]
		// Курсор строится по последнему возвращаемому элементу: сравнение "<"
		// в запросе начнёт следующую страницу сразу за ним, без пропусков.
		last := projects[limit-1]
		nextCursor = utils.EncodeCursor(last.UpdatedAt, last.ID)
	}

	r.logger.Debug("Listed projects", append(logFields, zap.Int("count", len(projects)), zap.Bool("hasNext", nextCursor != ""))...)
	return projects, nextCursor, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	project := &models.Project{}
	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Synopsis,
		&project.Genre,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return project, nil
}
