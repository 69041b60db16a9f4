package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const generationRecordColumns = `
	id, project_id, character_id, original_prompt, enhanced_prompt,
	provider, model, is_free, status, width, height,
	image_url, image_path, error_message, created_at
`

const createGenerationRecordQuery = `
INSERT INTO generation_records (
	id, project_id, character_id, original_prompt, enhanced_prompt,
	provider, model, is_free, status, width, height,
	image_url, image_path, error_message, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

const getGenerationRecordByIDQuery = `
SELECT ` + generationRecordColumns + `
FROM generation_records
WHERE id = $1
`

// Переход применяется только если текущий статус входит в допустимые
// предшественники; поздние и повторные сообщения не откатывают статус.
const updateGenerationRecordStatusQuery = `
UPDATE generation_records
SET status = $2,
    image_url = COALESCE($3, image_url),
    error_message = COALESCE($4, error_message)
WHERE id = $1 AND status = ANY($5::text[])
`

const getGenerationRecordStatusQuery = `
SELECT status FROM generation_records WHERE id = $1
`

type pgGenerationRecordRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.GenerationRecordRepository = (*pgGenerationRecordRepository)(nil)

// NewPgGenerationRecordRepository создает репозиторий истории генераций поверх PostgreSQL.
func NewPgGenerationRecordRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.GenerationRecordRepository {
	return &pgGenerationRecordRepository{
		db:     db,
		logger: logger.Named("PgGenerationRecordRepo"),
	}
}

// Create сохраняет новую запись генерации.
func (r *pgGenerationRecordRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	logFields := []zap.Field{
		zap.String("generationID", record.ID.String()),
		zap.String("projectID", record.ProjectID.String()),
		zap.String("provider", record.Provider),
	}

	_, err := r.db.Exec(ctx, createGenerationRecordQuery,
		record.ID,
		record.ProjectID,
		record.CharacterID,
		record.OriginalPrompt,
		record.EnhancedPrompt,
		record.Provider,
		record.Model,
		record.IsFree,
		string(record.Status),
		record.Width,
		record.Height,
		record.ImageURL,
		record.ImagePath,
		record.ErrorMessage,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create generation record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create generation record: %w", err)
	}

	r.logger.Info("Generation record created", logFields...)
	return nil
}

// GetByID возвращает запись или models.ErrNotFound.
func (r *pgGenerationRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationRecord, error) {
	row := r.db.QueryRow(ctx, getGenerationRecordByIDQuery, id)
	record, err := scanGenerationRecord(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Generation record not found", zap.String("generationID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get generation record", zap.String("generationID", id.String()), zap.Error(err))
		return nil, err
	}
	return record, nil
}

// UpdateStatus advances the forward-only status and attaches result fields.
// A transition the status machine forbids leaves the row untouched and
// returns models.ErrInvalidStatusTransition.
func (r *pgGenerationRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.GenerationStatus, imageURL *string, errorMessage *string) error {
	logFields := []zap.Field{zap.String("generationID", id.String()), zap.String("status", string(status))}

	priors := priorStatusesFor(status)
	if len(priors) == 0 {
		r.logger.Warn("No valid prior statuses for target status", logFields...)
		return models.ErrInvalidStatusTransition
	}

	cmdTag, err := r.db.Exec(ctx, updateGenerationRecordStatusQuery, id, string(status), imageURL, errorMessage, pq.Array(priors))
	if err != nil {
		r.logger.Error("Failed to update generation record status", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update generation record status: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		r.logger.Info("Generation record status updated", logFields...)
		return nil
	}

	// Ничего не обновилось: записи нет либо переход назад.
	var current string
	err = r.db.QueryRow(ctx, getGenerationRecordStatusQuery, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Generation record not found for status update", logFields...)
			return models.ErrNotFound
		}
		r.logger.Error("Failed to check generation record status", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to check generation record status: %w", err)
	}
	r.logger.Warn("Rejected backward generation status transition",
		append(logFields, zap.String("currentStatus", current))...)
	return models.ErrInvalidStatusTransition
}

// ListByProject returns the generation history of a project, newest first.
// characterID, если задан, сужает выборку до одного персонажа.
func (r *pgGenerationRecordRepository) ListByProject(ctx context.Context, projectID uuid.UUID, characterID *uuid.UUID, limit, offset int) ([]models.GenerationRecord, error) {
	logFields := []zap.Field{zap.String("projectID", projectID.String())}
	if characterID != nil {
		logFields = append(logFields, zap.String("characterID", characterID.String()))
	}

	args := []interface{}{projectID}
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`SELECT ` + generationRecordColumns + ` FROM generation_records WHERE project_id = $1`)
	if characterID != nil {
		args = append(args, *characterID)
		queryBuilder.WriteString(fmt.Sprintf(" AND character_id = $%d", len(args)))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	if limit > 0 {
		args = append(args, limit)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if offset > 0 {
		args = append(args, offset)
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.logger.Error("Failed to query generation records", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to query generation records: %w", err)
	}
	defer rows.Close()

	records := make([]models.GenerationRecord, 0)
	for rows.Next() {
		record, err := scanGenerationRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan generation record row", append(logFields, zap.Error(err))...)
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating generation record rows", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error iterating generation record rows: %w", err)
	}

	r.logger.Debug("Listed generation records", append(logFields, zap.Int("count", len(records)))...)
	return records, nil
}

// scanGenerationRecord читает одну строку generation_records в модель.
func scanGenerationRecord(row pgx.Row) (*models.GenerationRecord, error) {
	record := &models.GenerationRecord{}
	var status string

	err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&record.CharacterID,
		&record.OriginalPrompt,
		&record.EnhancedPrompt,
		&record.Provider,
		&record.Model,
		&record.IsFree,
		&status,
		&record.Width,
		&record.Height,
		&record.ImageURL,
		&record.ImagePath,
		&record.ErrorMessage,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan generation record: %w", err)
	}

	record.Status = models.GenerationStatus(status)
	return record, nil
}

// priorStatusesFor перечисляет статусы, из которых разрешён переход в next.
func priorStatusesFor(next models.GenerationStatus) []string {
	var priors []string
	for _, s := range []models.GenerationStatus{
		models.GenerationStatusPending,
		models.GenerationStatusProcessing,
		models.GenerationStatusCompleted,
		models.GenerationStatusFailed,
	} {
		if s.CanTransitionTo(next) {
			priors = append(priors, string(s))
		}
	}
	return priors
}
