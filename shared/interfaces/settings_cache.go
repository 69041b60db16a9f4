package interfaces

import (
	"context"

	"inkwell-server/shared/models"
)

// SettingsCache — кэш настроек (Redis) с TTL. Промах читается как
// models.ErrNotFound; инвалидация выполняется при каждом сохранении.
//
//go:generate mockery --name SettingsCache --output ./mocks --outpkg mocks --case=underscore
type SettingsCache interface {
	Get(ctx context.Context) (*models.AppSettings, error)
	Set(ctx context.Context, settings *models.AppSettings) error
	Invalidate(ctx context.Context) error
}
