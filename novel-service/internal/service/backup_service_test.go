package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell-server/novel-service/internal/service"
	sharedMocks "inkwell-server/shared/interfaces/mocks"
	sharedModels "inkwell-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type backupTestEnv struct {
	projectRepo    *sharedMocks.ProjectRepository
	chapterRepo    *sharedMocks.ChapterRepository
	characterRepo  *sharedMocks.CharacterRepository
	generationRepo *sharedMocks.GenerationRecordRepository
	versionRepo    *sharedMocks.VersionNodeRepository
	service        service.BackupService
}

// Пул передаётся nil-ом: юнит-тесты не доходят до транзакции,
// полный цикл восстановления проверяют интеграционные тесты.
func newBackupTestEnv() *backupTestEnv {
	env := &backupTestEnv{
		projectRepo:    new(sharedMocks.ProjectRepository),
		chapterRepo:    new(sharedMocks.ChapterRepository),
		characterRepo:  new(sharedMocks.CharacterRepository),
		generationRepo: new(sharedMocks.GenerationRecordRepository),
		versionRepo:    new(sharedMocks.VersionNodeRepository),
	}
	env.service = service.NewBackupService(
		nil,
		env.projectRepo,
		env.chapterRepo,
		env.characterRepo,
		env.generationRepo,
		env.versionRepo,
		zap.NewNop(),
	)
	return env
}

func makeBackupArchive(projectID uuid.UUID) *sharedModels.BackupArchive {
	now := time.Now().UTC()
	rootID := uuid.New()
	return &sharedModels.BackupArchive{
		SchemaVersion: sharedModels.BackupSchemaVersion,
		ExportedAt:    now,
		Project:       makeProject(projectID, "Хроники запустения"),
		Chapters: []sharedModels.Chapter{
			makeChapter(uuid.New(), projectID, "Глава 1", 0),
		},
		Characters: []sharedModels.Character{
			makeCharacter(uuid.New(), projectID, "Ильма"),
		},
		GenerationRecords: []sharedModels.GenerationRecord{
			makeGenerationRecord(uuid.New(), projectID, "портрет хронистки", "sana", now),
		},
		VersionNodes: []sharedModels.VersionNode{
			makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now),
		},
	}
}

// TestExport tests the Export method
func TestExport(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Assembles a complete archive", func(t *testing.T) {
		env := newBackupTestEnv()

		project := makeProject(projectID, "Хроники запустения")
		chapters := []sharedModels.Chapter{
			makeChapter(uuid.New(), projectID, "Глава 1", 0),
			makeChapter(uuid.New(), projectID, "Глава 2", 1),
		}
		characters := []sharedModels.Character{makeCharacter(uuid.New(), projectID, "Ильма")}
		now := time.Now().UTC()
		records := []sharedModels.GenerationRecord{
			makeGenerationRecord(uuid.New(), projectID, "портрет", "sana", now),
			makeGenerationRecord(uuid.New(), projectID, "замок на скале", "sana", now.Add(time.Minute)),
		}
		rootID := uuid.New()
		nodes := []sharedModels.VersionNode{
			makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now),
			makeVersionNode(uuid.New(), projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, rootID, now.Add(time.Minute)),
		}

		env.projectRepo.On("GetByID", ctx, projectID).Return(&project, nil).Once()
		env.chapterRepo.On("ListByProject", ctx, projectID).Return(chapters, nil).Once()
		env.characterRepo.On("ListByProject", ctx, projectID).Return(characters, nil).Once()
		// Без фильтра и пагинации: архив забирает всю историю генераций
		env.generationRepo.On("ListByProject", ctx, projectID, (*uuid.UUID)(nil), 0, 0).Return(records, nil).Once()
		env.versionRepo.On("ListByProject", ctx, projectID).Return(nodes, nil).Once()

		archive, err := env.service.Export(ctx, projectID)

		assert.NoError(t, err)
		assert.Equal(t, sharedModels.BackupSchemaVersion, archive.SchemaVersion)
		assert.False(t, archive.ExportedAt.IsZero())
		assert.Equal(t, "Хроники запустения", archive.Project.Title)
		assert.Len(t, archive.Chapters, 2)
		assert.Len(t, archive.Characters, 1)
		assert.Len(t, archive.GenerationRecords, 2)
		assert.Len(t, archive.VersionNodes, 2)
		env.projectRepo.AssertExpectations(t)
		env.versionRepo.AssertExpectations(t)
	})

	t.Run("Unknown project", func(t *testing.T) {
		env := newBackupTestEnv()

		env.projectRepo.On("GetByID", ctx, projectID).Return(nil, sharedModels.ErrNotFound).Once()

		archive, err := env.service.Export(ctx, projectID)

		assert.ErrorIs(t, err, sharedModels.ErrNotFound)
		assert.Nil(t, archive)
		env.chapterRepo.AssertNotCalled(t, "ListByProject", mock.Anything, mock.Anything)
	})

	t.Run("Chapter listing failure aborts the export", func(t *testing.T) {
		env := newBackupTestEnv()

		project := makeProject(projectID, "Хроники запустения")
		dbError := errors.New("connection reset")
		env.projectRepo.On("GetByID", ctx, projectID).Return(&project, nil).Once()
		env.chapterRepo.On("ListByProject", ctx, projectID).Return(nil, dbError).Once()

		archive, err := env.service.Export(ctx, projectID)

		assert.ErrorIs(t, err, dbError)
		assert.Nil(t, archive)
		env.characterRepo.AssertNotCalled(t, "ListByProject", mock.Anything, mock.Anything)
	})
}

// TestRestore tests the archive validation of the Restore method
func TestRestore(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Nil archive is rejected", func(t *testing.T) {
		env := newBackupTestEnv()

		result, err := env.service.Restore(ctx, nil)

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, result)
	})

	t.Run("Unknown schema version is rejected", func(t *testing.T) {
		env := newBackupTestEnv()

		archive := makeBackupArchive(projectID)
		archive.SchemaVersion = 99

		result, err := env.service.Restore(ctx, archive)

		assert.ErrorIs(t, err, sharedModels.ErrBackupSchemaUnsupported)
		assert.Nil(t, result)
	})

	t.Run("Archive without a project id is rejected", func(t *testing.T) {
		env := newBackupTestEnv()

		archive := makeBackupArchive(projectID)
		archive.Project.ID = uuid.Nil

		result, err := env.service.Restore(ctx, archive)

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, result)
	})

	t.Run("Archive without a project title is rejected", func(t *testing.T) {
		env := newBackupTestEnv()

		archive := makeBackupArchive(projectID)
		archive.Project.Title = ""

		result, err := env.service.Restore(ctx, archive)

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, result)
	})

	t.Run("Foreign rows are rejected per collection", func(t *testing.T) {
		foreignID := uuid.New()
		cases := []struct {
			name   string
			mutate func(a *sharedModels.BackupArchive)
		}{
			{"chapter from another project", func(a *sharedModels.BackupArchive) {
				a.Chapters[0].ProjectID = foreignID
			}},
			{"character from another project", func(a *sharedModels.BackupArchive) {
				a.Characters[0].ProjectID = foreignID
			}},
			{"generation record from another project", func(a *sharedModels.BackupArchive) {
				a.GenerationRecords[0].ProjectID = foreignID
			}},
			{"version node from another project", func(a *sharedModels.BackupArchive) {
				a.VersionNodes[0].ProjectID = foreignID
			}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				env := newBackupTestEnv()

				archive := makeBackupArchive(projectID)
				tc.mutate(archive)

				result, err := env.service.Restore(ctx, archive)

				assert.ErrorIs(t, err, sharedModels.ErrBackupProjectMismatch)
				assert.Nil(t, result)
			})
		}
	})
}
