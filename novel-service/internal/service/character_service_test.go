package service_test

import (
	"context"
	"strings"
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

func makeCharacter(id, projectID uuid.UUID, name string) sharedModels.Character {
	now := time.Now().UTC()
	return sharedModels.Character{
		ID:         id,
		ProjectID:  projectID,
		Name:       name,
		Appearance: strPtr("Седая коса, шрам над бровью"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TestCreateCharacter tests the CreateCharacter method
func TestCreateCharacter(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Stores the trimmed character", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		project := makeProject(projectID, "Хроники запустения")
		mockProjectRepo.On("GetByID", ctx, projectID).Return(&project, nil).Once()
		mockCharacterRepo.On("Create", ctx, mock.MatchedBy(func(c *sharedModels.Character) bool {
			assert.NotEqual(t, uuid.Nil, c.ID)
			assert.Equal(t, projectID, c.ProjectID)
			assert.Equal(t, "Ильма", c.Name)
			assert.Equal(t, strPtr("Хронистка при дворе"), c.Description)
			assert.Nil(t, c.PortraitGenerationID)
			return true
		})).Return(nil).Once()

		character, err := characterService.CreateCharacter(ctx, projectID, service.CharacterInput{
			Name:        "  Ильма  ",
			Description: strPtr("Хронистка при дворе"),
		})

		assert.NoError(t, err)
		assert.NotNil(t, character)
		assert.Equal(t, "Ильма", character.Name)
		mockCharacterRepo.AssertExpectations(t)
		mockProjectRepo.AssertExpectations(t)
	})

	t.Run("Unknown project", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		mockProjectRepo.On("GetByID", ctx, projectID).Return(nil, sharedModels.ErrNotFound).Once()

		character, err := characterService.CreateCharacter(ctx, projectID, service.CharacterInput{Name: "Ильма"})

		assert.ErrorIs(t, err, sharedModels.ErrProjectNotFound)
		assert.Nil(t, character)
		mockCharacterRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Blank name is rejected", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		character, err := characterService.CreateCharacter(ctx, projectID, service.CharacterInput{Name: "   "})

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, character)
		mockProjectRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Overlong name is rejected", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		character, err := characterService.CreateCharacter(ctx, projectID, service.CharacterInput{
			Name: strings.Repeat("x", 121),
		})

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, character)
		mockCharacterRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

// TestUpdateCharacter tests the UpdateCharacter method
func TestUpdateCharacter(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	characterID := uuid.New()

	t.Run("Overwrites the editable fields", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		stored := makeCharacter(characterID, projectID, "Ильма")
		stored.Notes = strPtr("черновая заметка")
		stored.UpdatedAt = time.Now().UTC().Add(-time.Hour)
		before := stored.UpdatedAt

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(&stored, nil).Once()
		mockCharacterRepo.On("Update", ctx, mock.MatchedBy(func(c *sharedModels.Character) bool {
			assert.Equal(t, characterID, c.ID)
			assert.Equal(t, "Ильма из Приречья", c.Name)
			assert.Equal(t, strPtr("Выросла при библиотеке"), c.Description)
			// Незаполненные поля затираются, частичного обновления нет
			assert.Nil(t, c.Notes)
			assert.True(t, c.UpdatedAt.After(before))
			return true
		})).Return(nil).Once()

		character, err := characterService.UpdateCharacter(ctx, characterID, service.CharacterInput{
			Name:        "Ильма из Приречья",
			Description: strPtr("Выросла при библиотеке"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "Ильма из Приречья", character.Name)
		assert.Nil(t, character.Notes)
		mockCharacterRepo.AssertExpectations(t)
	})

	t.Run("Unknown character", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(nil, sharedModels.ErrNotFound).Once()

		character, err := characterService.UpdateCharacter(ctx, characterID, service.CharacterInput{Name: "Ильма"})

		assert.ErrorIs(t, err, sharedModels.ErrNotFound)
		assert.Nil(t, character)
		mockCharacterRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

// TestSetPortrait tests the SetPortrait method
func TestSetPortrait(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	characterID := uuid.New()
	generationID := uuid.New()

	t.Run("Links an own-project render as the portrait", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		stored := makeCharacter(characterID, projectID, "Ильма")
		record := makeGenerationRecord(generationID, projectID, "портрет хронистки", "sana", time.Now().UTC())

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(&stored, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(&record, nil).Once()
		mockCharacterRepo.On("SetPortrait", ctx, characterID, generationID).Return(nil).Once()

		character, err := characterService.SetPortrait(ctx, characterID, generationID)

		assert.NoError(t, err)
		assert.NotNil(t, character.PortraitGenerationID)
		assert.Equal(t, generationID, *character.PortraitGenerationID)
		mockCharacterRepo.AssertExpectations(t)
		mockGenerationRepo.AssertExpectations(t)
	})

	t.Run("Render from another project is rejected", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		stored := makeCharacter(characterID, projectID, "Ильма")
		foreign := makeGenerationRecord(generationID, uuid.New(), "чужой портрет", "sana", time.Now().UTC())

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(&stored, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(&foreign, nil).Once()

		character, err := characterService.SetPortrait(ctx, characterID, generationID)

		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
		assert.Nil(t, character)
		mockCharacterRepo.AssertNotCalled(t, "SetPortrait", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing generation record", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		stored := makeCharacter(characterID, projectID, "Ильма")

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(&stored, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(nil, sharedModels.ErrNotFound).Once()

		character, err := characterService.SetPortrait(ctx, characterID, generationID)

		assert.ErrorIs(t, err, sharedModels.ErrGenerationRecordNotFound)
		assert.Nil(t, character)
		mockCharacterRepo.AssertNotCalled(t, "SetPortrait", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown character", func(t *testing.T) {
		mockCharacterRepo := new(sharedMocks.CharacterRepository)
		mockProjectRepo := new(sharedMocks.ProjectRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		characterService := service.NewCharacterService(mockCharacterRepo, mockProjectRepo, mockGenerationRepo, zap.NewNop())

		mockCharacterRepo.On("GetByID", ctx, characterID).Return(nil, sharedModels.ErrNotFound).Once()

		character, err := characterService.SetPortrait(ctx, characterID, generationID)

		assert.ErrorIs(t, err, sharedModels.ErrNotFound)
		assert.Nil(t, character)
		mockGenerationRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
