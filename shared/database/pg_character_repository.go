package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const characterColumns = `id, project_id, name, description, appearance, notes, portrait_generation_id, created_at, updated_at`

const createCharacterQuery = `
INSERT INTO characters (id, project_id, name, description, appearance, notes, portrait_generation_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const getCharacterByIDQuery = `
SELECT ` + characterColumns + `
FROM characters
WHERE id = $1
`

const updateCharacterQuery = `
UPDATE characters
SET name = $2, description = $3, appearance = $4, notes = $5, updated_at = $6
WHERE id = $1
`

const deleteCharacterQuery = `
DELETE FROM characters
WHERE id = $1
`

const listCharactersByProjectQuery = `
SELECT ` + characterColumns + `
FROM characters
WHERE project_id = $1
ORDER BY name ASC, id ASC
`

const setCharacterPortraitQuery = `
UPDATE characters
SET portrait_generation_id = $2, updated_at = $3
WHERE id = $1
`

type pgCharacterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.CharacterRepository = (*pgCharacterRepository)(nil)

// NewPgCharacterRepository создает репозиторий персонажей поверх PostgreSQL.
func NewPgCharacterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("PgCharacterRepo"),
	}
}

func (r *pgCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	logFields := []zap.Field{
		zap.String("characterID", character.ID.String()),
		zap.String("projectID", character.ProjectID.String()),
		zap.String("name", character.Name),
	}

	_, err := r.db.Exec(ctx, createCharacterQuery,
		character.ID,
		character.ProjectID,
		character.Name,
		character.Description,
		character.Appearance,
		character.Notes,
		character.PortraitGenerationID,
		character.CreatedAt,
		character.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create character", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create character: %w", err)
	}

	r.logger.Info("Character created", logFields...)
	return nil
}

func (r *pgCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	row := r.db.QueryRow(ctx, getCharacterByIDQuery, id)
	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Character not found", zap.String("characterID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get character", zap.String("characterID", id.String()), zap.Error(err))
		return nil, err
	}
	return character, nil
}

func (r *pgCharacterRepository) Update(ctx context.Context, character *models.Character) error {
	logFields := []zap.Field{zap.String("characterID", character.ID.String())}

	cmdTag, err := r.db.Exec(ctx, updateCharacterQuery,
		character.ID,
		character.Name,
		character.Description,
		character.Appearance,
		character.Notes,
		character.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update character", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update character: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Character not found for update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Character updated", logFields...)
	return nil
}

func (r *pgCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logFields := []zap.Field{zap.String("characterID", id.String())}

	cmdTag, err := r.db.Exec(ctx, deleteCharacterQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete character", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Character not found for delete", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Character deleted", logFields...)
	return nil
}

func (r *pgCharacterRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Character, error) {
	logFields := []zap.Field{zap.String("projectID", projectID.String())}

	rows, err := r.db.Query(ctx, listCharactersByProjectQuery, projectID)
	if err != nil {
		r.logger.Error("Failed to query characters", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	characters := make([]models.Character, 0)
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			r.logger.Error("Failed to scan character row", append(logFields, zap.Error(err))...)
			return nil, err
		}
		characters = append(characters, *character)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating character rows", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error iterating character rows: %w", err)
	}

	r.logger.Debug("Listed characters", append(logFields, zap.Int("count", len(characters)))...)
	return characters, nil
}

// SetPortrait делает запись генерации текущим портретом персонажа.
func (r *pgCharacterRepository) SetPortrait(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error {
	logFields := []zap.Field{
		zap.String("characterID", id.String()),
		zap.String("generationID", generationID.String()),
	}

	cmdTag, err := r.db.Exec(ctx, setCharacterPortraitQuery, id, generationID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to set character portrait", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to set character portrait: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Character not found for portrait update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Character portrait set", logFields...)
	return nil
}

func scanCharacter(row pgx.Row) (*models.Character, error) {
	character := &models.Character{}
	err := row.Scan(
		&character.ID,
		&character.ProjectID,
		&character.Name,
		&character.Description,
		&character.Appearance,
		&character.Notes,
		&character.PortraitGenerationID,
		&character.CreatedAt,
		&character.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan character: %w", err)
	}
	return character, nil
}
