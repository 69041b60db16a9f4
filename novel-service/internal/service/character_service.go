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

const maxCharacterNameLength = 120

// CharacterInput — создаваемые и изменяемые поля персонажа.
type CharacterInput struct {
	Name        string
	Description *string
	Appearance  *string
	Notes       *string
}

// CharacterService — персонажи проекта и привязка портрета.
type CharacterService interface {
	CreateCharacter(ctx context.Context, projectID uuid.UUID, input CharacterInput) (*models.Character, error)
	GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error)
	UpdateCharacter(ctx context.Context, id uuid.UUID, input CharacterInput) (*models.Character, error)
	DeleteCharacter(ctx context.Context, id uuid.UUID) error
	ListCharacters(ctx context.Context, projectID uuid.UUID) ([]models.Character, error)

	// SetPortrait выбирает запись генерации текущим портретом персонажа.
	// Запись должна существовать и принадлежать проекту персонажа.
	SetPortrait(ctx context.Context, id uuid.UUID, generationID uuid.UUID) (*models.Character, error)
}

type characterServiceImpl struct {
	characterRepo  interfaces.CharacterRepository
	projectRepo    interfaces.ProjectRepository
	generationRepo interfaces.GenerationRecordRepository
	logger         *zap.Logger
}

// NewCharacterService creates a new instance of CharacterService.
func NewCharacterService(
	characterRepo interfaces.CharacterRepository,
	projectRepo interfaces.ProjectRepository,
	generationRepo interfaces.GenerationRecordRepository,
	logger *zap.Logger,
) CharacterService {
	return &characterServiceImpl{
		characterRepo:  characterRepo,
		projectRepo:    projectRepo,
		generationRepo: generationRepo,
		logger:         logger.Named("CharacterService"),
	}
}

func (s *characterServiceImpl) CreateCharacter(ctx context.Context, projectID uuid.UUID, input CharacterInput) (*models.Character, error) {
	if err := validateCharacterInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrProjectNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	character := &models.Character{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        input.Name,
		Description: input.Description,
		Appearance:  input.Appearance,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.characterRepo.Create(ctx, character); err != nil {
		s.logger.Error("Failed to create character", zap.String("projectID", projectID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Character created",
		zap.String("characterID", character.ID.String()),
		zap.String("projectID", projectID.String()))
	return character, nil
}

func (s *characterServiceImpl) GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	return s.characterRepo.GetByID(ctx, id)
}

func (s *characterServiceImpl) UpdateCharacter(ctx context.Context, id uuid.UUID, input CharacterInput) (*models.Character, error) {
	if err := validateCharacterInput(&input); err != nil {
		return nil, err
	}

	character, err := s.characterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	character.Name = input.Name
	character.Description = input.Description
	character.Appearance = input.Appearance
	character.Notes = input.Notes
	character.UpdatedAt = time.Now().UTC()

	if err := s.characterRepo.Update(ctx, character); err != nil {
		s.logger.Error("Failed to update character", zap.String("characterID", id.String()), zap.Error(err))
		return nil, err
	}
	return character, nil
}

func (s *characterServiceImpl) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	return s.characterRepo.Delete(ctx, id)
}

func (s *characterServiceImpl) ListCharacters(ctx context.Context, projectID uuid.UUID) ([]models.Character, error) {
	return s.characterRepo.ListByProject(ctx, projectID)
}

func (s *characterServiceImpl) SetPortrait(ctx context.Context, id uuid.UUID, generationID uuid.UUID) (*models.Character, error) {
	character, err := s.characterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record, err := s.generationRepo.GetByID(ctx, generationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrGenerationRecordNotFound
		}
		return nil, err
	}
	if record.ProjectID != character.ProjectID {
		// Портрет из чужого проекта не принимаем
		return nil, models.ErrInvalidInput
	}

	if err := s.characterRepo.SetPortrait(ctx, id, generationID); err != nil {
		s.logger.Error("Failed to set character portrait",
			zap.String("characterID", id.String()),
			zap.String("generationID", generationID.String()),
			zap.Error(err))
		return nil, err
	}

	character.PortraitGenerationID = &generationID
	character.UpdatedAt = time.Now().UTC()
	s.logger.Info("Character portrait updated",
		zap.String("characterID", id.String()),
		zap.String("generationID", generationID.String()))
	return character, nil
}

func validateCharacterInput(input *CharacterInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || len(input.Name) > maxCharacterNameLength {
		return models.ErrInvalidInput
	}
	return nil
}
