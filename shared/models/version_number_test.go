package models_test

import (
	"encoding/json"
	"testing"

	"inkwell-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVersionNumberSteps tests the increment rules of the numbering scheme
func TestVersionNumberSteps(t *testing.T) {
	t.Run("NextRevision advances by a tenth", func(t *testing.T) {
		cases := []struct {
			from float64
			want string
		}{
			{1.0, "1.1"},
			{1.1, "1.2"},
			{1.9, "2.0"}, // десятые переполняются в целое
			{3.4, "3.5"},
		}
		for _, tc := range cases {
			got := models.VersionNumberFromFloat(tc.from).NextRevision()
			assert.Equal(t, tc.want, got.String())
		}
	})

	t.Run("NextWhole jumps to the next integer", func(t *testing.T) {
		cases := []struct {
			from float64
			want string
		}{
			{1.0, "2.0"},
			{1.1, "2.0"},
			{2.9, "3.0"},
			{5.0, "6.0"},
		}
		for _, tc := range cases {
			got := models.VersionNumberFromFloat(tc.from).NextWhole()
			assert.Equal(t, tc.want, got.String())
		}
	})

	t.Run("First number of a lineage is 1.0", func(t *testing.T) {
		assert.Equal(t, "1.0", models.FirstVersionNumber.String())
		assert.True(t, models.FirstVersionNumber.IsWhole())
		assert.False(t, models.FirstVersionNumber.NextRevision().IsWhole())
	})

	t.Run("Rounding does not drift on binary fractions", func(t *testing.T) {
		// 3.3 не представим в float64 точно, счёт в десятых это скрывает
		v := models.VersionNumberFromFloat(3.3)
		assert.Equal(t, "3.3", v.String())
		assert.Equal(t, "3.4", v.NextRevision().String())
	})
}

// TestVersionNumberParsing tests the text and JSON forms
func TestVersionNumberParsing(t *testing.T) {
	t.Run("Parses the decimal form", func(t *testing.T) {
		v, err := models.ParseVersionNumber(" 2.1 ")
		require.NoError(t, err)
		assert.Equal(t, models.VersionNumberFromFloat(2.1), v)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := models.ParseVersionNumber("v1.0")
		assert.Error(t, err)
	})

	t.Run("JSON accepts both number and string", func(t *testing.T) {
		var fromNumber models.VersionNumber
		require.NoError(t, json.Unmarshal([]byte(`1.1`), &fromNumber))

		var fromString models.VersionNumber
		require.NoError(t, json.Unmarshal([]byte(`"1.1"`), &fromString))

		assert.Equal(t, fromNumber, fromString)
	})

	t.Run("JSON output keeps one fractional digit", func(t *testing.T) {
		out, err := json.Marshal(models.VersionNumberFromFloat(2.0))
		require.NoError(t, err)
		assert.Equal(t, "2.0", string(out))
	})

	t.Run("Scan mirrors the BIGINT tenths", func(t *testing.T) {
		var v models.VersionNumber
		require.NoError(t, v.Scan(int64(42)))
		assert.Equal(t, "4.2", v.String())

		// Текстовая форма тоже принимается, вдруг колонку мигрируют в NUMERIC
		var parsed models.VersionNumber
		require.NoError(t, parsed.Scan("3.0"))
		assert.True(t, parsed.IsWhole())

		val, err := v.Value()
		require.NoError(t, err)
		assert.Equal(t, int64(42), val)
	})
}
