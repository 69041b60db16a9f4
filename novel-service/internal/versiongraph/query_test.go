package versiongraph_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell-server/novel-service/internal/versiongraph"
	"inkwell-server/shared/models"
)

func enriched(id uuid.UUID, mutate func(*versiongraph.EnrichedRecord)) versiongraph.EnrichedRecord {
	r := versiongraph.EnrichedRecord{
		GenerationRecord: makeRecord(id, uid(0xAA), testBase),
	}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func idsOf(records []versiongraph.EnrichedRecord) []uuid.UUID {
	ids := make([]uuid.UUID, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	return ids
}

func TestApplyFilters(t *testing.T) {
	versioned := enriched(uid(1), func(r *versiongraph.EnrichedRecord) {
		r.Provider = "openrouter"
		r.EnhancedPrompt = ptr("a GOTHIC castle, detailed")
		r.VersionID = ptr(uid(0x21))
		r.VersionNumber = ptr(models.VersionNumber(11))
		r.VersionType = ptr(models.VersionTypeRevision)
		r.IsLatestVersion = ptr(false)
		r.TotalVersions = ptr(3)
		r.VersionTags = []string{"Cover", "final"}
	})
	latest := enriched(uid(2), func(r *versiongraph.EnrichedRecord) {
		r.Provider = "sana"
		r.Status = models.GenerationStatusFailed
		r.VersionID = ptr(uid(0x22))
		r.VersionNumber = ptr(models.VersionNumber(20))
		r.VersionType = ptr(models.VersionTypeBranch)
		r.IsLatestVersion = ptr(true)
		r.TotalVersions = ptr(3)
	})
	plain := enriched(uid(3), nil) // generation without any version data

	records := []versiongraph.EnrichedRecord{versioned, latest, plain}

	t.Run("by provider", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Provider: "openrouter"})
		assert.Equal(t, []uuid.UUID{uid(1)}, idsOf(out))
	})

	t.Run("by status", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Status: models.GenerationStatusFailed})
		assert.Equal(t, []uuid.UUID{uid(2)}, idsOf(out))
	})

	t.Run("latest only keeps unversioned records", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Lineage: versiongraph.LineageLatestOnly})
		assert.Equal(t, []uuid.UUID{uid(2), uid(3)}, idsOf(out))
	})

	t.Run("original only", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Lineage: versiongraph.LineageOriginalOnly})
		// Ревизия и ветка отсеяны, запись без версий остаётся.
		assert.Equal(t, []uuid.UUID{uid(3)}, idsOf(out))
	})

	t.Run("multi-version lineages only", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Lineage: versiongraph.LineageMultiVersion})
		assert.Equal(t, []uuid.UUID{uid(1), uid(2)}, idsOf(out))
	})

	t.Run("search over original prompt", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Search: "CASTLE AT"})
		assert.Len(t, out, 3) // все записи делят один originalPrompt
	})

	t.Run("search over enhanced prompt is case-insensitive", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Search: "gothic"})
		assert.Equal(t, []uuid.UUID{uid(1)}, idsOf(out))
	})

	t.Run("search over formatted version number", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Search: "2.0"})
		assert.Equal(t, []uuid.UUID{uid(2)}, idsOf(out))
	})

	t.Run("search over version tags", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{Search: "cover"})
		assert.Equal(t, []uuid.UUID{uid(1)}, idsOf(out))
	})

	t.Run("filters AND-compose", func(t *testing.T) {
		out := versiongraph.Apply(records, versiongraph.Filter{
			Provider: "openrouter",
			Lineage:  versiongraph.LineageMultiVersion,
			Search:   "final",
		})
		assert.Equal(t, []uuid.UUID{uid(1)}, idsOf(out))

		out = versiongraph.Apply(records, versiongraph.Filter{
			Provider: "openrouter",
			Status:   models.GenerationStatusFailed, // провайдер совпал, статус нет
		})
		assert.Empty(t, out)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		before := append([]versiongraph.EnrichedRecord(nil), records...)
		_ = versiongraph.Apply(records, versiongraph.Filter{Provider: "sana"})
		assert.Equal(t, before, records)
	})
}

func TestSortByDate(t *testing.T) {
	a := enriched(uid(1), func(r *versiongraph.EnrichedRecord) { r.CreatedAt = testBase })
	b := enriched(uid(2), func(r *versiongraph.EnrichedRecord) { r.CreatedAt = testBase.Add(2 * time.Hour) })
	c := enriched(uid(3), func(r *versiongraph.EnrichedRecord) { r.CreatedAt = testBase.Add(time.Hour) })

	out := versiongraph.Sort([]versiongraph.EnrichedRecord{a, b, c}, versiongraph.SortByDate, nil)
	assert.Equal(t, []uuid.UUID{uid(2), uid(3), uid(1)}, idsOf(out))
}

func TestSortByProviderAndModel(t *testing.T) {
	a := enriched(uid(1), func(r *versiongraph.EnrichedRecord) { r.Provider = "sana"; r.Model = "sana-1.5" })
	b := enriched(uid(2), func(r *versiongraph.EnrichedRecord) { r.Provider = "openrouter"; r.Model = "flux-dev" })
	c := enriched(uid(3), func(r *versiongraph.EnrichedRecord) { r.Provider = "openrouter"; r.Model = "dall-e-3" })

	byProvider := versiongraph.Sort([]versiongraph.EnrichedRecord{a, b, c}, versiongraph.SortByProvider, nil)
	// Стабильность: внутри "openrouter" исходный порядок b, c сохранён.
	assert.Equal(t, []uuid.UUID{uid(2), uid(3), uid(1)}, idsOf(byProvider))

	byModel := versiongraph.Sort([]versiongraph.EnrichedRecord{a, b, c}, versiongraph.SortByModel, nil)
	assert.Equal(t, []uuid.UUID{uid(3), uid(2), uid(1)}, idsOf(byModel))
}

func TestSortByVersionRank(t *testing.T) {
	big := enriched(uid(1), func(r *versiongraph.EnrichedRecord) {
		r.TotalVersions = ptr(5)
		r.VersionNumber = ptr(models.VersionNumber(11))
	})
	smallHigh := enriched(uid(2), func(r *versiongraph.EnrichedRecord) {
		r.TotalVersions = ptr(2)
		r.VersionNumber = ptr(models.VersionNumber(30))
	})
	smallLow := enriched(uid(3), func(r *versiongraph.EnrichedRecord) {
		r.TotalVersions = ptr(2)
		r.VersionNumber = ptr(models.VersionNumber(10))
	})
	unversioned := enriched(uid(4), nil)

	out := versiongraph.Sort([]versiongraph.EnrichedRecord{unversioned, smallLow, big, smallHigh}, versiongraph.SortByVersion, nil)
	// Сначала размер линии, затем номер версии, записи без версий в конце.
	assert.Equal(t, []uuid.UUID{uid(1), uid(2), uid(3), uid(4)}, idsOf(out))
}

func TestSortCustomPermutation(t *testing.T) {
	a := enriched(uid(1), nil)
	b := enriched(uid(2), nil)
	x := enriched(uid(3), nil)
	c := enriched(uid(4), nil)
	y := enriched(uid(5), nil)

	records := []versiongraph.EnrichedRecord{a, b, x, c, y}
	custom := []uuid.UUID{uid(5), uid(3)} // y, затем x

	out := versiongraph.Sort(records, versiongraph.SortByCustom, custom)
	require.Len(t, out, 5)
	// Перестановка впереди, остальные в исходном относительном порядке.
	assert.Equal(t, []uuid.UUID{uid(5), uid(3), uid(1), uid(2), uid(4)}, idsOf(out))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	a := enriched(uid(1), func(r *versiongraph.EnrichedRecord) { r.CreatedAt = testBase })
	b := enriched(uid(2), func(r *versiongraph.EnrichedRecord) { r.CreatedAt = testBase.Add(time.Hour) })

	records := []versiongraph.EnrichedRecord{a, b}
	before := append([]versiongraph.EnrichedRecord(nil), records...)

	_ = versiongraph.Sort(records, versiongraph.SortByDate, nil)
	assert.Equal(t, before, records)
}
