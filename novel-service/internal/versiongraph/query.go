package versiongraph

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"inkwell-server/shared/models"
)

// LineageFilter сужает выборку по положению записи в линии версий.
type LineageFilter string

const (
	LineageAll LineageFilter = "all"
	// LineageLatestOnly оставляет новейший узел каждой линии. Записи без
	// версий проходят: одинокая генерация тривиально новейшая у самой себя.
	LineageLatestOnly LineageFilter = "latest"
	// LineageOriginalOnly оставляет корни линий и записи без версий.
	LineageOriginalOnly LineageFilter = "original"
	// LineageMultiVersion оставляет записи линий из двух и более узлов.
	LineageMultiVersion LineageFilter = "multi"
)

// Filter — AND-композиция условий выборки. Нулевые значения означают
// «не фильтровать по этому полю».
type Filter struct {
	Provider string
	Status   models.GenerationStatus
	Lineage  LineageFilter
	// Search — подстрока без учёта регистра по originalPrompt,
	// enhancedPrompt, форматированному versionNumber и тегам версии.
	Search string
}

// SortKey задаёт порядок выдачи.
type SortKey string

const (
	SortByDate     SortKey = "date"     // убывание createdAt
	SortByProvider SortKey = "provider" // лексикографически
	SortByModel    SortKey = "model"    // лексикографически
	SortByVersion  SortKey = "version"  // убывание totalVersions, затем versionNumber
	SortByCustom   SortKey = "custom"   // внешняя перестановка id
)

// Apply фильтрует записи. Вход не мутируется.
func Apply(records []EnrichedRecord, f Filter) []EnrichedRecord {
	out := make([]EnrichedRecord, 0, len(records))
	for i := range records {
		if matches(&records[i], f) {
			out = append(out, records[i])
		}
	}
	return out
}

func matches(r *EnrichedRecord, f Filter) bool {
	if f.Provider != "" && r.Provider != f.Provider {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !matchesLineage(r, f.Lineage) {
		return false
	}
	if f.Search != "" && !matchesSearch(r, f.Search) {
		return false
	}
	return true
}

func matchesLineage(r *EnrichedRecord, lf LineageFilter) bool {
	switch lf {
	case LineageLatestOnly:
		return r.IsLatestVersion == nil || *r.IsLatestVersion
	case LineageOriginalOnly:
		return r.VersionType == nil || *r.VersionType == models.VersionTypeOriginal
	case LineageMultiVersion:
		return r.TotalVersions != nil && *r.TotalVersions > 1
	default:
		return true
	}
}

func matchesSearch(r *EnrichedRecord, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(r.OriginalPrompt), needle) {
		return true
	}
	if r.EnhancedPrompt != nil && strings.Contains(strings.ToLower(*r.EnhancedPrompt), needle) {
		return true
	}
	if r.VersionNumber != nil && strings.Contains(r.VersionNumber.String(), needle) {
		return true
	}
	for _, tag := range r.VersionTags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Sort возвращает отсортированную копию записей. customOrder используется
// только ключом SortByCustom: записи вне перестановки идут после неё, в
// исходном относительном порядке (сортировка стабильная).
func Sort(records []EnrichedRecord, key SortKey, customOrder []uuid.UUID) []EnrichedRecord {
	out := make([]EnrichedRecord, len(records))
	copy(out, records)

	switch key {
	case SortByProvider:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Provider < out[j].Provider
		})
	case SortByModel:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Model < out[j].Model
		})
	case SortByVersion:
		sort.SliceStable(out, func(i, j int) bool {
			ti, tj := totalVersionsOrZero(&out[i]), totalVersionsOrZero(&out[j])
			if ti != tj {
				return ti > tj
			}
			return versionNumberOrZero(&out[i]) > versionNumberOrZero(&out[j])
		})
	case SortByCustom:
		rank := make(map[uuid.UUID]int, len(customOrder))
		for i, id := range customOrder {
			rank[id] = i
		}
		missing := len(customOrder)
		sort.SliceStable(out, func(i, j int) bool {
			ri, ok := rank[out[i].ID]
			if !ok {
				ri = missing
			}
			rj, ok := rank[out[j].ID]
			if !ok {
				rj = missing
			}
			return ri < rj
		})
	default: // SortByDate
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID.String() > out[j].ID.String()
		})
	}
	return out
}

func totalVersionsOrZero(r *EnrichedRecord) int {
	if r.TotalVersions == nil {
		return 0
	}
	return *r.TotalVersions
}

func versionNumberOrZero(r *EnrichedRecord) models.VersionNumber {
	if r.VersionNumber == nil {
		return 0
	}
	return *r.VersionNumber
}
