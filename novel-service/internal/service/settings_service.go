package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const minPassphraseLength = 4

// UpdateSettingsInput — полный набор изменяемых настроек (PUT-семантика).
// Хеш парольной фразы через этот путь не меняется никогда.
type UpdateSettingsInput struct {
	Theme           string
	EditorFont      string
	AutosaveSeconds int
	TextProvider    string
	TextModel       string
	TextTemperature float64
	TextMaxTokens   int
	ImageProvider   string
	ImageModel      string
	ImageWidth      int
	ImageHeight     int
}

// SettingsService управляет единственной строкой настроек рабочего
// пространства и парольной фразой блокировки.
type SettingsService interface {
	// GetSettings возвращает настройки, при пустой базе — значения первого
	// запуска без записи в хранилище.
	GetSettings(ctx context.Context) (*models.AppSettings, error)

	// UpdateSettings заменяет изменяемые поля и сбрасывает кэш.
	UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.AppSettings, error)

	// SetLockPassphrase устанавливает или заменяет парольную фразу блокировки.
	SetLockPassphrase(ctx context.Context, passphrase string) error

	// VerifyPassphrase сверяет фразу с сохранённым хешем.
	// models.ErrLockNotConfigured, если фраза не задана,
	// models.ErrInvalidCredentials при несовпадении.
	VerifyPassphrase(ctx context.Context, passphrase string) error
}

type settingsServiceImpl struct {
	repo   interfaces.SettingsRepository
	cache  interfaces.SettingsCache
	logger *zap.Logger
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(repo interfaces.SettingsRepository, cache interfaces.SettingsCache, logger *zap.Logger) SettingsService {
	return &settingsServiceImpl{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("SettingsService"),
	}
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	settings, err := s.cache.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("Settings cache read failed, falling back to repository", zap.Error(err))
	}

	settings, err = s.repo.Get(ctx)
	if errors.Is(err, models.ErrNotFound) {
		defaults := models.DefaultAppSettings()
		return &defaults, nil
	}
	if err != nil {
		s.logger.Error("Failed to load settings", zap.Error(err))
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, settings); cacheErr != nil {
		s.logger.Warn("Failed to populate settings cache", zap.Error(cacheErr))
	}
	return settings, nil
}

func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.AppSettings, error) {
	if err := validateSettingsInput(input); err != nil {
		return nil, err
	}

	// Текущую строку читаем из репозитория, не из кэша: нельзя рисковать
	// хешем блокировки при сохранении полной строки.
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, models.ErrNotFound) {
		defaults := models.DefaultAppSettings()
		settings = &defaults
	} else if err != nil {
		s.logger.Error("Failed to load settings before update", zap.Error(err))
		return nil, err
	}

	settings.Theme = input.Theme
	settings.EditorFont = input.EditorFont
	settings.AutosaveSeconds = input.AutosaveSeconds
	settings.TextProvider = input.TextProvider
	settings.TextModel = input.TextModel
	settings.TextTemperature = input.TextTemperature
	settings.TextMaxTokens = input.TextMaxTokens
	settings.ImageProvider = input.ImageProvider
	settings.ImageModel = input.ImageModel
	settings.ImageWidth = input.ImageWidth
	settings.ImageHeight = input.ImageHeight

	if err := s.repo.Save(ctx, settings); err != nil {
		s.logger.Error("Failed to save settings", zap.Error(err))
		return nil, err
	}
	s.invalidateCache(ctx)
	return settings, nil
}

func (s *settingsServiceImpl) SetLockPassphrase(ctx context.Context, passphrase string) error {
	passphrase = strings.TrimSpace(passphrase)
	if len(passphrase) < minPassphraseLength {
		return models.ErrInvalidInput
	}

	hash, err := hashPassphrase(passphrase)
	if err != nil {
		s.logger.Error("Failed to hash lock passphrase", zap.Error(err))
		return err
	}

	settings, err := s.repo.Get(ctx)
	if errors.Is(err, models.ErrNotFound) {
		defaults := models.DefaultAppSettings()
		settings = &defaults
	} else if err != nil {
		return err
	}

	settings.LockPassphraseHash = &hash
	if err := s.repo.Save(ctx, settings); err != nil {
		s.logger.Error("Failed to save lock passphrase", zap.Error(err))
		return err
	}
	s.invalidateCache(ctx)
	s.logger.Info("Workspace lock passphrase updated")
	return nil
}

func (s *settingsServiceImpl) VerifyPassphrase(ctx context.Context, passphrase string) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.IsLockConfigured() {
		return models.ErrLockNotConfigured
	}
	if !checkPassphraseHash(passphrase, *settings.LockPassphraseHash) {
		return models.ErrInvalidCredentials
	}
	return nil
}

func (s *settingsServiceImpl) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate settings cache", zap.Error(err))
	}
}

func validateSettingsInput(input UpdateSettingsInput) error {
	if strings.TrimSpace(input.Theme) == "" || strings.TrimSpace(input.EditorFont) == "" {
		return models.ErrInvalidInput
	}
	if input.AutosaveSeconds <= 0 || input.TextMaxTokens <= 0 {
		return models.ErrInvalidInput
	}
	if input.TextTemperature < 0 || input.TextTemperature > 2 {
		return models.ErrInvalidInput
	}
	if strings.TrimSpace(input.TextProvider) == "" || strings.TrimSpace(input.TextModel) == "" {
		return models.ErrInvalidInput
	}
	if strings.TrimSpace(input.ImageProvider) == "" || strings.TrimSpace(input.ImageModel) == "" {
		return models.ErrInvalidInput
	}
	if input.ImageWidth <= 0 || input.ImageHeight <= 0 {
		return models.ErrInvalidInput
	}
	return nil
}

// hashPassphrase generates a bcrypt hash of the lock passphrase.
func hashPassphrase(passphrase string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPassphraseHash compares a plain passphrase with a stored hash.
func checkPassphraseHash(passphrase, hash string) bool {
	// bcrypt сам извлечёт соль из хеша и сравнит
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)) == nil
}
