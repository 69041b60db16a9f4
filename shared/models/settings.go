package models

import "time"

// AppSettings — единственная строка настроек рабочего пространства.
// LockPassphraseHash хранит bcrypt-хеш парольной фразы блокировки;
// наружу поле никогда не сериализуется.
type AppSettings struct {
	Theme              string    `json:"theme" db:"theme"`
	EditorFont         string    `json:"editor_font" db:"editor_font"`
	AutosaveSeconds    int       `json:"autosave_seconds" db:"autosave_seconds"`
	TextProvider       string    `json:"text_provider" db:"text_provider"`
	TextModel          string    `json:"text_model" db:"text_model"`
	TextTemperature    float64   `json:"text_temperature" db:"text_temperature"`
	TextMaxTokens      int       `json:"text_max_tokens" db:"text_max_tokens"`
	ImageProvider      string    `json:"image_provider" db:"image_provider"`
	ImageModel         string    `json:"image_model" db:"image_model"`
	ImageWidth         int       `json:"image_width" db:"image_width"`
	ImageHeight        int       `json:"image_height" db:"image_height"`
	LockPassphraseHash *string   `json:"-" db:"lock_passphrase_hash"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultAppSettings возвращает настройки первого запуска.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Theme:           "dark",
		EditorFont:      "serif",
		AutosaveSeconds: 30,
		TextProvider:    "openrouter",
		TextModel:       "deepseek/deepseek-chat",
		TextTemperature: 0.8,
		TextMaxTokens:   1024,
		ImageProvider:   "sana",
		ImageModel:      "sana-1.5",
		ImageWidth:      1024,
		ImageHeight:     1024,
	}
}

// IsLockConfigured reports whether a lock passphrase has been set.
func (s *AppSettings) IsLockConfigured() bool {
	return s.LockPassphraseHash != nil && *s.LockPassphraseHash != ""
}
