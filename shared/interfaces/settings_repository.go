package interfaces

import (
	"context"

	"inkwell-server/shared/models"
)

// SettingsRepository persists the singleton workspace settings row.
//
//go:generate mockery --name SettingsRepository --output ./mocks --outpkg mocks --case=underscore
type SettingsRepository interface {
	// Get возвращает настройки; models.ErrNotFound, если строка ещё не создана.
	Get(ctx context.Context) (*models.AppSettings, error)

	// Save создаёт или обновляет единственную строку настроек.
	Save(ctx context.Context, settings *models.AppSettings) error
}
