package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const maxChapterTitleLength = 200

// ChapterInput — создаваемые и изменяемые поля главы.
// WordCount всегда пересчитывается сервисом, клиент его не присылает.
type ChapterInput struct {
	Title   string
	Content string
}

// ChapterService — главы рукописи: CRUD и перестановка порядка.
type ChapterService interface {
	// CreateChapter добавляет главу в конец проекта.
	CreateChapter(ctx context.Context, projectID uuid.UUID, input ChapterInput) (*models.Chapter, error)
	GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, id uuid.UUID, input ChapterInput) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, id uuid.UUID) error
	ListChapters(ctx context.Context, projectID uuid.UUID) ([]models.Chapter, error)

	// ReorderChapters применяет новый порядок. orderedIDs обязан быть
	// перестановкой всех глав проекта.
	ReorderChapters(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error
}

type chapterServiceImpl struct {
	chapterRepo interfaces.ChapterRepository
	projectRepo interfaces.ProjectRepository
	logger      *zap.Logger
}

// NewChapterService creates a new instance of ChapterService.
func NewChapterService(chapterRepo interfaces.ChapterRepository, projectRepo interfaces.ProjectRepository, logger *zap.Logger) ChapterService {
	return &chapterServiceImpl{
		chapterRepo: chapterRepo,
		projectRepo: projectRepo,
		logger:      logger.Named("ChapterService"),
	}
}

func (s *chapterServiceImpl) CreateChapter(ctx context.Context, projectID uuid.UUID, input ChapterInput) (*models.Chapter, error) {
	if err := validateChapterInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrProjectNotFound
		}
		return nil, err
	}

	existing, err := s.chapterRepo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to list chapters before create", zap.String("projectID", projectID.String()), zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	chapter := &models.Chapter{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     input.Title,
		Content:   input.Content,
		Position:  len(existing), // Новая глава встаёт в конец
		WordCount: models.CountWords(input.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		s.logger.Error("Failed to create chapter", zap.String("projectID", projectID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Chapter created",
		zap.String("chapterID", chapter.ID.String()),
		zap.String("projectID", projectID.String()),
		zap.Int("position", chapter.Position))
	return chapter, nil
}

func (s *chapterServiceImpl) GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	return s.chapterRepo.GetByID(ctx, id)
}

func (s *chapterServiceImpl) UpdateChapter(ctx context.Context, id uuid.UUID, input ChapterInput) (*models.Chapter, error) {
	if err := validateChapterInput(&input); err != nil {
		return nil, err
	}

	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	chapter.Title = input.Title
	chapter.Content = input.Content
	chapter.WordCount = models.CountWords(input.Content)
	chapter.UpdatedAt = time.Now().UTC()

	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		s.logger.Error("Failed to update chapter", zap.String("chapterID", id.String()), zap.Error(err))
		return nil, err
	}
	return chapter, nil
}

func (s *chapterServiceImpl) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.chapterRepo.Delete(ctx, id); err != nil {
		return err
	}

	// После удаления порядок уплотняем заново, иначе в position появится дыра.
	remaining, err := s.chapterRepo.ListByProject(ctx, chapter.ProjectID)
	if err != nil {
		s.logger.Warn("Failed to list chapters after delete, positions left sparse",
			zap.String("projectID", chapter.ProjectID.String()), zap.Error(err))
		return nil
	}
	if len(remaining) > 0 {
		ids := make([]uuid.UUID, len(remaining))
		for i, ch := range remaining {
			ids[i] = ch.ID
		}
		if err := s.chapterRepo.Reorder(ctx, chapter.ProjectID, ids); err != nil {
			s.logger.Warn("Failed to compact chapter positions after delete",
				zap.String("projectID", chapter.ProjectID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *chapterServiceImpl) ListChapters(ctx context.Context, projectID uuid.UUID) ([]models.Chapter, error) {
	return s.chapterRepo.ListByProject(ctx, projectID)
}

func (s *chapterServiceImpl) ReorderChapters(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return models.ErrInvalidInput
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrProjectNotFound
		}
		return err
	}

	if err := s.chapterRepo.Reorder(ctx, projectID, orderedIDs); err != nil {
		return err
	}
	s.logger.Info("Chapters reordered",
		zap.String("projectID", projectID.String()),
		zap.Int("count", len(orderedIDs)))
	return nil
}

func validateChapterInput(input *ChapterInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || len(input.Title) > maxChapterTitleLength {
		return models.ErrInvalidInput
	}
	return nil
}
