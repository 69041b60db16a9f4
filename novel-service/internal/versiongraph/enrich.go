package versiongraph

import (
	"github.com/google/uuid"

	"inkwell-server/shared/models"
)

// EnrichedRecord — денормализованный взгляд на запись генерации, дополненный
// фактами графа версий. Пересобирается на каждом обновлении и никогда не
// сохраняется. Все версионные поля опциональны: у записи без подходящего
// узла они отсутствуют, а не заполнены нулями.
type EnrichedRecord struct {
	models.GenerationRecord

	VersionID       *uuid.UUID            `json:"version_id,omitempty"`
	VersionNumber   *models.VersionNumber `json:"version_number,omitempty"`
	VersionType     *models.VersionType   `json:"version_type,omitempty"`
	VersionStatus   *models.VersionStatus `json:"version_status,omitempty"`
	IsLatestVersion *bool                 `json:"is_latest_version,omitempty"`
	TotalVersions   *int                  `json:"total_versions,omitempty"`
	BranchName      *string               `json:"branch_name,omitempty"`
	VersionTags     []string              `json:"version_tags,omitempty"`
}

// HasVersion reports whether the record was joined with a version node.
func (r *EnrichedRecord) HasVersion() bool {
	return r.VersionID != nil
}

// Enrich соединяет записи генерации с лучшим подходящим узлом графа.
// Правило выбора кандидатов для записи g:
//  1. Узлы с linkedGenerationId == g.id — авторитетная привязка.
//  2. Только если таких нет: непривязанные узлы того же проекта — запасной
//     вариант на время, пока явной привязки ещё не было.
//
// Из кандидатов берётся узел с самым свежим metadata.createdAt (при
// равенстве — больший versionNumber, затем больший id). Запись без
// кандидатов проходит без изменений — это обычный случай, не ошибка.
// Узлы испорченных линий в кандидаты не попадают; если авторитетная
// привязка ведёт в испорченную линию, запись остаётся необогащённой.
//
// Результат детерминирован: порядок записей совпадает со входным, выбор
// кандидатов не зависит от порядка обхода map.
func Enrich(records []models.GenerationRecord, snap *Snapshot) []EnrichedRecord {
	out := make([]EnrichedRecord, 0, len(records))
	for i := range records {
		out = append(out, enrichOne(&records[i], snap))
	}
	return out
}

func enrichOne(g *models.GenerationRecord, snap *Snapshot) EnrichedRecord {
	record := EnrichedRecord{GenerationRecord: *g}

	relevant := pickRelevantVersion(g, snap)
	if relevant == nil {
		return record
	}

	root, err := snap.ResolveRoot(relevant.ID)
	if err != nil {
		// Кандидаты уже отфильтрованы от порчи; сюда попадать не должны.
		return record
	}
	siblings := snap.SiblingsOfRoot(root.ID)

	versionID := relevant.ID
	versionNumber := relevant.VersionNumber
	versionType := models.NormalizeVersionType(string(relevant.Type))
	versionStatus := relevant.Status
	isLatest := IsLatest(relevant, siblings)
	total := len(siblings)

	record.VersionID = &versionID
	record.VersionNumber = &versionNumber
	record.VersionType = &versionType
	record.VersionStatus = &versionStatus
	record.IsLatestVersion = &isLatest
	record.TotalVersions = &total
	if relevant.BranchName != nil {
		name := *relevant.BranchName
		record.BranchName = &name
	}
	if len(relevant.Metadata.Tags) > 0 {
		record.VersionTags = append([]string(nil), relevant.Metadata.Tags...)
	}
	return record
}

// pickRelevantVersion выбирает лучший узел для записи или nil.
func pickRelevantVersion(g *models.GenerationRecord, snap *Snapshot) *models.VersionNode {
	var best *models.VersionNode
	linkedSeen := false

	// Один проход по арене: сначала ищем авторитетные привязки.
	for i := range snap.arena {
		node := &snap.arena[i]
		if node.LinkedGenerationID == nil || *node.LinkedGenerationID != g.ID {
			continue
		}
		linkedSeen = true
		if snap.isCorrupt(node.ID) {
			continue
		}
		best = betterCandidate(best, node)
	}
	if linkedSeen {
		// Привязка есть, но вся ведёт в испорченные линии — запись
		// остаётся необогащённой, на чужие линии не переключаемся.
		return best
	}

	for i := range snap.arena {
		node := &snap.arena[i]
		if node.LinkedGenerationID != nil || node.ProjectID != g.ProjectID {
			continue
		}
		if snap.isCorrupt(node.ID) {
			continue
		}
		best = betterCandidate(best, node)
	}
	return best
}

// betterCandidate сравнивает кандидатов: свежее createdAt, затем больший
// versionNumber, затем больший id — последний шаг гарантирует полную
// детерминированность при совпадении первых двух ключей.
func betterCandidate(current, candidate *models.VersionNode) *models.VersionNode {
	if current == nil {
		return candidate
	}
	switch {
	case candidate.Metadata.CreatedAt.After(current.Metadata.CreatedAt):
		return candidate
	case current.Metadata.CreatedAt.After(candidate.Metadata.CreatedAt):
		return current
	}
	if candidate.VersionNumber != current.VersionNumber {
		if candidate.VersionNumber > current.VersionNumber {
			return candidate
		}
		return current
	}
	if candidate.ID.String() > current.ID.String() {
		return candidate
	}
	return current
}
