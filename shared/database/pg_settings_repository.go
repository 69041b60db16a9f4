package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	pgxV5 "github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

// Настройки живут одной строкой с фиксированным id = TRUE.
const (
	getAppSettingsQuery = `
        SELECT theme, editor_font, autosave_seconds,
               text_provider, text_model, text_temperature, text_max_tokens,
               image_provider, image_model, image_width, image_height,
               lock_passphrase_hash, updated_at
        FROM app_settings
        WHERE singleton = TRUE
    `
	upsertAppSettingsQuery = `
        INSERT INTO app_settings (
            singleton, theme, editor_font, autosave_seconds,
            text_provider, text_model, text_temperature, text_max_tokens,
            image_provider, image_model, image_width, image_height,
            lock_passphrase_hash, updated_at
        )
        VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (singleton) DO UPDATE SET
            theme = EXCLUDED.theme,
            editor_font = EXCLUDED.editor_font,
            autosave_seconds = EXCLUDED.autosave_seconds,
            text_provider = EXCLUDED.text_provider,
            text_model = EXCLUDED.text_model,
            text_temperature = EXCLUDED.text_temperature,
            text_max_tokens = EXCLUDED.text_max_tokens,
            image_provider = EXCLUDED.image_provider,
            image_model = EXCLUDED.image_model,
            image_width = EXCLUDED.image_width,
            image_height = EXCLUDED.image_height,
            lock_passphrase_hash = EXCLUDED.lock_passphrase_hash,
            updated_at = EXCLUDED.updated_at
    `
)

type pgSettingsRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.SettingsRepository = (*pgSettingsRepository)(nil)

// NewPgSettingsRepository создает репозиторий настроек поверх PostgreSQL.
func NewPgSettingsRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SettingsRepository {
	return &pgSettingsRepository{
		db:     db,
		logger: logger.Named("PgSettingsRepo"),
	}
}

// Get возвращает единственную строку настроек или models.ErrNotFound.
func (r *pgSettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := pgxscan.Get(ctx, r.db, &settings, getAppSettingsQuery)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			r.logger.Debug("App settings row not created yet")
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get app settings", zap.Error(err))
		return nil, fmt.Errorf("failed to get app settings: %w", err)
	}
	return &settings, nil
}

// Save создаёт или обновляет строку настроек.
func (r *pgSettingsRepository) Save(ctx context.Context, settings *models.AppSettings) error {
	_, err := r.db.Exec(ctx, upsertAppSettingsQuery,
		settings.Theme,
		settings.EditorFont,
		settings.AutosaveSeconds,
		settings.TextProvider,
		settings.TextModel,
		settings.TextTemperature,
		settings.TextMaxTokens,
		settings.ImageProvider,
		settings.ImageModel,
		settings.ImageWidth,
		settings.ImageHeight,
		settings.LockPassphraseHash,
		settings.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save app settings", zap.Error(err))
		return fmt.Errorf("failed to save app settings: %w", err)
	}
	r.logger.Info("App settings saved")
	return nil
}
