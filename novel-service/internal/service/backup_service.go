package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inkwell-server/shared/database"
	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

// BackupService — экспорт проекта в переносимый архив и транзакционное
// восстановление. Restore заменяет проект целиком: при совпадении id старая
// копия удаляется в той же транзакции.
type BackupService interface {
	Export(ctx context.Context, projectID uuid.UUID) (*models.BackupArchive, error)
	Restore(ctx context.Context, archive *models.BackupArchive) (*models.BackupRestoreResult, error)
}

type backupServiceImpl struct {
	pool           *pgxpool.Pool
	projectRepo    interfaces.ProjectRepository
	chapterRepo    interfaces.ChapterRepository
	characterRepo  interfaces.CharacterRepository
	generationRepo interfaces.GenerationRecordRepository
	versionRepo    interfaces.VersionNodeRepository
	logger         *zap.Logger
}

// NewBackupService creates a new instance of BackupService.
// Пул нужен напрямую: восстановление собирает репозитории поверх транзакции.
func NewBackupService(
	pool *pgxpool.Pool,
	projectRepo interfaces.ProjectRepository,
	chapterRepo interfaces.ChapterRepository,
	characterRepo interfaces.CharacterRepository,
	generationRepo interfaces.GenerationRecordRepository,
	versionRepo interfaces.VersionNodeRepository,
	logger *zap.Logger,
) BackupService {
	return &backupServiceImpl{
		pool:           pool,
		projectRepo:    projectRepo,
		chapterRepo:    chapterRepo,
		characterRepo:  characterRepo,
		generationRepo: generationRepo,
		versionRepo:    versionRepo,
		logger:         logger.Named("BackupService"),
	}
}

func (s *backupServiceImpl) Export(ctx context.Context, projectID uuid.UUID) (*models.BackupArchive, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	chapters, err := s.chapterRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	characters, err := s.characterRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	records, err := s.generationRepo.ListByProject(ctx, projectID, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	nodes, err := s.versionRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project exported",
		zap.String("projectID", projectID.String()),
		zap.Int("chapters", len(chapters)),
		zap.Int("characters", len(characters)),
		zap.Int("generationRecords", len(records)),
		zap.Int("versionNodes", len(nodes)))
	return &models.BackupArchive{
		SchemaVersion:     models.BackupSchemaVersion,
		ExportedAt:        time.Now().UTC(),
		Project:           *project,
		Chapters:          chapters,
		Characters:        characters,
		GenerationRecords: records,
		VersionNodes:      nodes,
	}, nil
}

func (s *backupServiceImpl) Restore(ctx context.Context, archive *models.BackupArchive) (*models.BackupRestoreResult, error) {
	if err := validateArchive(archive); err != nil {
		return nil, err
	}

	projectID := archive.Project.ID
	logFields := []zap.Field{zap.String("projectID", projectID.String())}

	err := WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		// Репозитории поверх транзакции: весь импорт либо коммитится,
		// либо не оставляет следов.
		projectRepo := database.NewPgProjectRepository(tx, s.logger)
		chapterRepo := database.NewPgChapterRepository(tx, s.logger)
		characterRepo := database.NewPgCharacterRepository(tx, s.logger)
		generationRepo := database.NewPgGenerationRecordRepository(tx, s.logger)
		versionRepo := database.NewPgVersionNodeRepository(tx, s.logger)

		if _, err := projectRepo.GetByID(ctx, projectID); err == nil {
			s.logger.Info("Existing project replaced by restore", logFields...)
			if err := projectRepo.Delete(ctx, projectID); err != nil {
				return err
			}
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		project := archive.Project
		if err := projectRepo.Create(ctx, &project); err != nil {
			return err
		}
		for i := range archive.Chapters {
			chapter := archive.Chapters[i]
			if err := chapterRepo.Create(ctx, &chapter); err != nil {
				return err
			}
		}
		// Портреты персонажей ссылаются на записи генерации, поэтому записи
		// вставляются раньше.
		for i := range archive.GenerationRecords {
			record := archive.GenerationRecords[i]
			if err := generationRepo.Create(ctx, &record); err != nil {
				return err
			}
		}
		for i := range archive.Characters {
			character := archive.Characters[i]
			if err := characterRepo.Create(ctx, &character); err != nil {
				return err
			}
		}
		for i := range archive.VersionNodes {
			node := archive.VersionNodes[i]
			if err := versionRepo.Create(ctx, &node); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Restore failed", append(logFields, zap.Error(err))...)
		return nil, err
	}

	s.logger.Info("Project restored",
		append(logFields,
			zap.Int("chapters", len(archive.Chapters)),
			zap.Int("characters", len(archive.Characters)),
			zap.Int("generationRecords", len(archive.GenerationRecords)),
			zap.Int("versionNodes", len(archive.VersionNodes)))...)
	return &models.BackupRestoreResult{
		ProjectID:         projectID,
		Chapters:          len(archive.Chapters),
		Characters:        len(archive.Characters),
		GenerationRecords: len(archive.GenerationRecords),
		VersionNodes:      len(archive.VersionNodes),
	}, nil
}

func validateArchive(archive *models.BackupArchive) error {
	if archive == nil {
		return models.ErrInvalidInput
	}
	if archive.SchemaVersion != models.BackupSchemaVersion {
		return models.ErrBackupSchemaUnsupported
	}
	if archive.Project.ID == uuid.Nil || archive.Project.Title == "" {
		return models.ErrInvalidInput
	}

	projectID := archive.Project.ID
	for _, ch := range archive.Chapters {
		if ch.ProjectID != projectID {
			return models.ErrBackupProjectMismatch
		}
	}
	for _, c := range archive.Characters {
		if c.ProjectID != projectID {
			return models.ErrBackupProjectMismatch
		}
	}
	for _, g := range archive.GenerationRecords {
		if g.ProjectID != projectID {
			return models.ErrBackupProjectMismatch
		}
	}
	for _, n := range archive.VersionNodes {
		if n.ProjectID != projectID {
			return models.ErrBackupProjectMismatch
		}
	}
	return nil
}
