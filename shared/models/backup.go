package models

import (
	"time"

	"github.com/google/uuid"
)

// BackupSchemaVersion versions the archive layout. Bump on breaking changes;
// restore rejects versions it does not know.
const BackupSchemaVersion = 1

// BackupArchive — переносимый снимок одного проекта: сам проект, главы,
// персонажи, история генераций и граф версий. Связи между узлами остаются
// ссылками по id, вложенных деревьев в архиве нет.
type BackupArchive struct {
	SchemaVersion     int                `json:"schema_version"`
	ExportedAt        time.Time          `json:"exported_at"`
	Project           Project            `json:"project"`
	Chapters          []Chapter          `json:"chapters"`
	Characters        []Character        `json:"characters"`
	GenerationRecords []GenerationRecord `json:"generation_records"`
	VersionNodes      []VersionNode      `json:"version_nodes"`
}

// BackupRestoreResult summarizes what a restore wrote.
type BackupRestoreResult struct {
	ProjectID         uuid.UUID `json:"project_id"`
	Chapters          int       `json:"chapters"`
	Characters        int       `json:"characters"`
	GenerationRecords int       `json:"generation_records"`
	VersionNodes      int       `json:"version_nodes"`
}
