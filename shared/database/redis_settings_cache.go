package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const (
	appSettingsCacheKey = "app_settings"
	appSettingsCacheTTL = 5 * time.Minute
)

// Compile-time check to ensure redisSettingsCache implements SettingsCache
var _ interfaces.SettingsCache = (*redisSettingsCache)(nil)

// cachedAppSettings сериализует настройки целиком: у models.AppSettings хеш
// парольной фразы помечен json:"-", а кэш обязан пережить полный round-trip.
type cachedAppSettings struct {
	models.AppSettings
	LockPassphraseHash *string `json:"lock_passphrase_hash,omitempty"`
}

type redisSettingsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSettingsCache creates a Redis-backed settings cache.
func NewRedisSettingsCache(client *redis.Client, logger *zap.Logger) interfaces.SettingsCache {
	return &redisSettingsCache{
		client: client,
		logger: logger.Named("RedisSettingsCache"),
	}
}

// Get возвращает закэшированные настройки или models.ErrNotFound при промахе.
func (c *redisSettingsCache) Get(ctx context.Context) (*models.AppSettings, error) {
	data, err := c.client.Get(ctx, appSettingsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			c.logger.Debug("App settings cache miss")
			return nil, models.ErrNotFound
		}
		c.logger.Error("Failed to get app settings from redis", zap.Error(err))
		return nil, fmt.Errorf("failed to get app settings from redis: %w", err)
	}

	var cached cachedAppSettings
	if err := json.Unmarshal(data, &cached); err != nil {
		// Повреждённый кэш выбрасываем, чтобы следующий вызов ушёл в БД.
		c.logger.Error("Failed to unmarshal cached app settings, invalidating", zap.Error(err))
		c.client.Del(ctx, appSettingsCacheKey)
		return nil, models.ErrNotFound
	}

	settings := cached.AppSettings
	settings.LockPassphraseHash = cached.LockPassphraseHash
	c.logger.Debug("App settings cache hit")
	return &settings, nil
}

// Set кладёт настройки в кэш с TTL.
func (c *redisSettingsCache) Set(ctx context.Context, settings *models.AppSettings) error {
	data, err := json.Marshal(cachedAppSettings{
		AppSettings:        *settings,
		LockPassphraseHash: settings.LockPassphraseHash,
	})
	if err != nil {
		c.logger.Error("Failed to marshal app settings for cache", zap.Error(err))
		return fmt.Errorf("failed to marshal app settings for cache: %w", err)
	}

	if err := c.client.Set(ctx, appSettingsCacheKey, data, appSettingsCacheTTL).Err(); err != nil {
		c.logger.Error("Failed to set app settings in redis", zap.Error(err))
		return fmt.Errorf("failed to set app settings in redis: %w", err)
	}

	c.logger.Debug("App settings cached", zap.Duration("ttl", appSettingsCacheTTL))
	return nil
}

// Invalidate удаляет кэшированную строку настроек.
func (c *redisSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, appSettingsCacheKey).Err(); err != nil {
		c.logger.Error("Failed to invalidate app settings cache", zap.Error(err))
		return fmt.Errorf("failed to invalidate app settings cache: %w", err)
	}
	c.logger.Debug("App settings cache invalidated")
	return nil
}
