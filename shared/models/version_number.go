package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VersionNumber — десятичный порядковый ключ версии (1.0, 1.1, 2.0 ...).
// Хранится как целое число десятых, чтобы сравнение и инкремент не зависели
// от двоичного округления float64. В БД колонка BIGINT с теми же десятыми.
type VersionNumber int64

// FirstVersionNumber is assigned to the root of a fresh lineage.
const FirstVersionNumber VersionNumber = 10 // 1.0

// VersionNumberFromFloat rounds an arbitrary float to the nearest tenth.
func VersionNumberFromFloat(f float64) VersionNumber {
	return VersionNumber(math.Round(f * 10))
}

// ParseVersionNumber parses the decimal form ("1.1").
func ParseVersionNumber(s string) (VersionNumber, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version number %q: %w", s, err)
	}
	return VersionNumberFromFloat(f), nil
}

// String formats with exactly one fractional digit, matching the stored shape.
func (v VersionNumber) String() string {
	return strconv.FormatFloat(v.Float64(), 'f', 1, 64)
}

// Float64 returns the decimal value (1.1 for eleven tenths).
func (v VersionNumber) Float64() float64 {
	return float64(v) / 10
}

// IsWhole reports whether the number has no fractional part (1.0, 2.0 ...).
func (v VersionNumber) IsWhole() bool {
	return v%10 == 0
}

// NextRevision is the following tenth: 1.0 -> 1.1, 1.9 -> 2.0.
func (v VersionNumber) NextRevision() VersionNumber {
	return v + 1
}

// NextWhole is the following whole number: 1.0 -> 2.0, 2.3 -> 3.0.
// Branch versions and new root siblings are numbered this way.
func (v VersionNumber) NextWhole() VersionNumber {
	return (v/10 + 1) * 10
}

// MarshalJSON emits a JSON number with one fractional digit.
func (v VersionNumber) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalJSON принимает и число (1.1), и строку ("1.1") — клиенты шлют оба варианта.
func (v *VersionNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseVersionNumber(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Value implements driver.Valuer for the BIGINT column.
func (v VersionNumber) Value() (driver.Value, error) {
	return int64(v), nil
}

// Scan implements sql.Scanner; из BIGINT приходят те же десятые.
func (v *VersionNumber) Scan(src any) error {
	switch val := src.(type) {
	case nil:
		*v = 0
		return nil
	case int64:
		*v = VersionNumber(val)
		return nil
	case float64:
		*v = VersionNumberFromFloat(val)
		return nil
	case string:
		parsed, err := ParseVersionNumber(val)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	case []byte:
		parsed, err := ParseVersionNumber(string(val))
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into VersionNumber", src)
	}
}
