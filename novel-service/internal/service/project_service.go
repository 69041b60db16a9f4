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

const (
	defaultProjectPageSize = 20
	maxProjectPageSize     = 100
	maxProjectTitleLength  = 200
)

// ProjectInput — создаваемые и изменяемые поля проекта.
type ProjectInput struct {
	Title    string
	Synopsis *string
	Genre    *string
}

// ProjectService — CRUD рукописей плюс сводка для списка проектов.
type ProjectService interface {
	CreateProject(ctx context.Context, input ProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, input ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// ListProjects возвращает страницу проектов (свежие сверху) и курсор
	// следующей страницы; пустой курсор означает конец списка.
	ListProjects(ctx context.Context, limit int, cursor string) ([]models.Project, string, error)

	// GetProjectSummary собирает сводку по главам: количество и суммарный
	// объём в словах.
	GetProjectSummary(ctx context.Context, id uuid.UUID) (*models.ProjectSummary, error)
}

type projectServiceImpl struct {
	projectRepo interfaces.ProjectRepository
	chapterRepo interfaces.ChapterRepository
	logger      *zap.Logger
}

// NewProjectService creates a new instance of ProjectService.
func NewProjectService(projectRepo interfaces.ProjectRepository, chapterRepo interfaces.ChapterRepository, logger *zap.Logger) ProjectService {
	return &projectServiceImpl{
		projectRepo: projectRepo,
		chapterRepo: chapterRepo,
		logger:      logger.Named("ProjectService"),
	}
}

func (s *projectServiceImpl) CreateProject(ctx context.Context, input ProjectInput) (*models.Project, error) {
	if err := validateProjectInput(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:        uuid.New(),
		Title:     input.Title,
		Synopsis:  input.Synopsis,
		Genre:     input.Genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Project created", zap.String("projectID", project.ID.String()))
	return project, nil
}

func (s *projectServiceImpl) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

func (s *projectServiceImpl) UpdateProject(ctx context.Context, id uuid.UUID, input ProjectInput) (*models.Project, error) {
	if err := validateProjectInput(&input); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.Title = input.Title
	project.Synopsis = input.Synopsis
	project.Genre = input.Genre
	project.UpdatedAt = time.Now().UTC()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		s.logger.Error("Failed to update project", zap.String("projectID", id.String()), zap.Error(err))
		return nil, err
	}
	return project, nil
}

func (s *projectServiceImpl) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("projectID", id.String()))
	return nil
}

func (s *projectServiceImpl) ListProjects(ctx context.Context, limit int, cursor string) ([]models.Project, string, error) {
	if limit <= 0 {
		limit = defaultProjectPageSize
	}
	if limit > maxProjectPageSize {
		limit = maxProjectPageSize
	}

	projects, nextCursor, err := s.projectRepo.List(ctx, limit, cursor)
	if err != nil {
		if errors.Is(err, interfaces.ErrInvalidCursor) {
			return nil, "", models.ErrBadRequest
		}
		s.logger.Error("Failed to list projects", zap.Error(err))
		return nil, "", err
	}
	return projects, nextCursor, nil
}

func (s *projectServiceImpl) GetProjectSummary(ctx context.Context, id uuid.UUID) (*models.ProjectSummary, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chapters, err := s.chapterRepo.ListByProject(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list chapters for summary", zap.String("projectID", id.String()), zap.Error(err))
		return nil, err
	}

	var words int64
	for _, ch := range chapters {
		words += int64(ch.WordCount)
	}
	return &models.ProjectSummary{
		ID:           project.ID,
		Title:        project.Title,
		Genre:        project.Genre,
		ChapterCount: len(chapters),
		WordCount:    words,
		UpdatedAt:    project.UpdatedAt,
	}, nil
}

func validateProjectInput(input *ProjectInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || len(input.Title) > maxProjectTitleLength {
		return models.ErrInvalidInput
	}
	return nil
}
