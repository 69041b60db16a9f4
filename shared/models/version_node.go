package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// VersionType определяет вид узла в графе версий иллюстрации.
// Совпадает с типом ENUM 'version_type' в БД.
type VersionType string

const (
	VersionTypeOriginal VersionType = "original" // Корень новой линии версий
	VersionTypeRevision VersionType = "revision" // Доработка родителя (следующая десятая)
	VersionTypeBranch   VersionType = "branch"   // Именованное ответвление (следующее целое)
	VersionTypeMerge    VersionType = "merge"    // Слияние веток

	// VersionTypeUnknown covers values persisted by newer clients.
	// Readers keep the record instead of failing on it.
	VersionTypeUnknown VersionType = ""
)

// IsValidVersionType проверяет, является ли значение известным VersionType.
func IsValidVersionType(t VersionType) bool {
	switch t {
	case VersionTypeOriginal, VersionTypeRevision, VersionTypeBranch, VersionTypeMerge:
		return true
	default:
		return false
	}
}

// NormalizeVersionType maps arbitrary stored values onto the known set,
// degrading anything else to VersionTypeUnknown.
func NormalizeVersionType(raw string) VersionType {
	t := VersionType(raw)
	if IsValidVersionType(t) {
		return t
	}
	return VersionTypeUnknown
}

// VersionStatus — пользовательская пометка узла. Вытеснение ("superseded")
// как факт вычисляется по графу и не каскадируется при смене статуса.
type VersionStatus string

const (
	VersionStatusActive     VersionStatus = "active"
	VersionStatusArchived   VersionStatus = "archived"
	VersionStatusSuperseded VersionStatus = "superseded"
)

// IsValidVersionStatus проверяет значение статуса.
func IsValidVersionStatus(s VersionStatus) bool {
	switch s {
	case VersionStatusActive, VersionStatusArchived, VersionStatusSuperseded:
		return true
	default:
		return false
	}
}

// VersionMetadata is the mutable descriptive part of a version node.
type VersionMetadata struct {
	Title            string          `json:"title" db:"title"`
	Description      string          `json:"description,omitempty" db:"description"`
	Tags             []string        `json:"tags,omitempty" db:"tags"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	AIParameters     json.RawMessage `json:"ai_parameters,omitempty" db:"ai_parameters"`
	Width            int             `json:"width" db:"width"`
	Height           int             `json:"height" db:"height"`
	GenerationTimeMs int64           `json:"generation_time_ms,omitempty" db:"generation_time_ms"`
	FileSizeBytes    int64           `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	ViewCount        int64           `json:"view_count" db:"view_count"`
	LikeCount        int64           `json:"like_count" db:"like_count"`
	ExportCount      int64           `json:"export_count" db:"export_count"`
}

// VersionNode — узел графа версий. Идентичность неизменна, мутируются только
// status и metadata; узлы никогда не удаляются (только архивирование).
// Родитель и корень хранятся ссылками по id, вложенных структур в БД нет.
type VersionNode struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	ProjectID          uuid.UUID     `json:"project_id" db:"project_id"`
	Type               VersionType   `json:"type" db:"version_type"`
	VersionNumber      VersionNumber `json:"version_number" db:"version_number"`
	ParentVersionID    *uuid.UUID    `json:"parent_version_id,omitempty" db:"parent_version_id"` // NULL только у корня линии
	RootVersionID      uuid.UUID     `json:"root_version_id" db:"root_version_id"`               // Проверяется при чтении, а не просто кэш
	BranchName         *string       `json:"branch_name,omitempty" db:"branch_name"`
	Status             VersionStatus `json:"status" db:"status"`
	LinkedGenerationID *uuid.UUID    `json:"linked_generation_id,omitempty" db:"linked_generation_id"`
	Metadata           VersionMetadata `json:"metadata"`
}

// IsRoot reports whether the node starts its lineage.
func (n *VersionNode) IsRoot() bool {
	return n.ParentVersionID == nil
}

// HasTag reports whether the node carries the exact tag.
func (n *VersionNode) HasTag(tag string) bool {
	for _, t := range n.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
