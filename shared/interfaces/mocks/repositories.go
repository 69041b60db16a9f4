package mocks

import (
	"context"

	"inkwell-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ProjectRepository
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) List(ctx context.Context, limit int, cursor string) ([]models.Project, string, error) {
	args := m.Called(ctx, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]models.Project), args.String(1), args.Error(2)
}

// Mock ChapterRepository
type ChapterRepository struct {
	mock.Mock
}

func (m *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}

func (m *ChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *ChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}

func (m *ChapterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ChapterRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Chapter, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Chapter), args.Error(1)
}

func (m *ChapterRepository) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	args := m.Called(ctx, projectID, orderedIDs)
	return args.Error(0)
}

// Mock CharacterRepository
type CharacterRepository struct {
	mock.Mock
}

func (m *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Character), args.Error(1)
}

func (m *CharacterRepository) Update(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CharacterRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Character, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Character), args.Error(1)
}

func (m *CharacterRepository) SetPortrait(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error {
	args := m.Called(ctx, id, generationID)
	return args.Error(0)
}

// Mock GenerationRecordRepository
type GenerationRecordRepository struct {
	mock.Mock
}

func (m *GenerationRecordRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *GenerationRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationRecord), args.Error(1)
}

func (m *GenerationRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.GenerationStatus, imageURL *string, errorMessage *string) error {
	args := m.Called(ctx, id, status, imageURL, errorMessage)
	return args.Error(0)
}

func (m *GenerationRecordRepository) ListByProject(ctx context.Context, projectID uuid.UUID, characterID *uuid.UUID, limit, offset int) ([]models.GenerationRecord, error) {
	args := m.Called(ctx, projectID, characterID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GenerationRecord), args.Error(1)
}

// Mock VersionNodeRepository
type VersionNodeRepository struct {
	mock.Mock
}

func (m *VersionNodeRepository) Create(ctx context.Context, node *models.VersionNode) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *VersionNodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VersionNode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VersionNode), args.Error(1)
}

func (m *VersionNodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VersionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *VersionNodeRepository) AddTags(ctx context.Context, id uuid.UUID, tags []string) error {
	args := m.Called(ctx, id, tags)
	return args.Error(0)
}

func (m *VersionNodeRepository) SetBranchName(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *VersionNodeRepository) LinkGeneration(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error {
	args := m.Called(ctx, id, generationID)
	return args.Error(0)
}

func (m *VersionNodeRepository) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]models.VersionNode, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VersionNode), args.Error(1)
}

func (m *VersionNodeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.VersionNode, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VersionNode), args.Error(1)
}

// Mock SettingsRepository
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppSettings), args.Error(1)
}

func (m *SettingsRepository) Save(ctx context.Context, settings *models.AppSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// Mock SettingsCache
type SettingsCache struct {
	mock.Mock
}

func (m *SettingsCache) Get(ctx context.Context) (*models.AppSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppSettings), args.Error(1)
}

func (m *SettingsCache) Set(ctx context.Context, settings *models.AppSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *SettingsCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
