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

func strPtr(s string) *string { return &s }

func makeVersionNode(id, projectID uuid.UUID, vtype sharedModels.VersionType, number sharedModels.VersionNumber, parentID *uuid.UUID, rootID uuid.UUID, createdAt time.Time) sharedModels.VersionNode {
	return sharedModels.VersionNode{
		ID:              id,
		ProjectID:       projectID,
		Type:            vtype,
		VersionNumber:   number,
		ParentVersionID: parentID,
		RootVersionID:   rootID,
		Status:          sharedModels.VersionStatusActive,
		Metadata: sharedModels.VersionMetadata{
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
	}
}

// TestCreateVersion tests the CreateVersion method
func TestCreateVersion(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Original root numbers itself 1.0", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			assert.Equal(t, projectID, n.ProjectID)
			assert.Equal(t, sharedModels.VersionTypeOriginal, n.Type)
			assert.Equal(t, sharedModels.FirstVersionNumber, n.VersionNumber)
			// Корень сам себе линия
			assert.Equal(t, n.ID, n.RootVersionID)
			assert.Nil(t, n.ParentVersionID)
			assert.Equal(t, sharedModels.VersionStatusActive, n.Status)
			return true
		})).Return(nil).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID: projectID,
			Type:      sharedModels.VersionTypeOriginal,
			Title:     "Портрет героини",
		})

		assert.NoError(t, err)
		assert.NotNil(t, node)
		assert.Equal(t, sharedModels.FirstVersionNumber, node.VersionNumber)
		// Для корня срез графа не нужен
		mockVersionRepo.AssertNotCalled(t, "ListByProject", mock.Anything, mock.Anything)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Revision takes the next tenth after its parent", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, time.Now().UTC())

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root}, nil).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			assert.Equal(t, sharedModels.VersionNumberFromFloat(1.1), n.VersionNumber)
			assert.Equal(t, rootID, n.RootVersionID)
			assert.Equal(t, &rootID, n.ParentVersionID)
			return true
		})).Return(nil).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeRevision,
			ParentVersionID: &rootID,
		})

		assert.NoError(t, err)
		assert.Equal(t, sharedModels.VersionNumberFromFloat(1.1), node.VersionNumber)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Revision skips tenths already taken in the lineage", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		now := time.Now().UTC()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		rev := makeVersionNode(uuid.New(), projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, rootID, now.Add(time.Minute))

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, rev}, nil).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			// 1.1 занята другой ревизией того же родителя
			assert.Equal(t, sharedModels.VersionNumberFromFloat(1.2), n.VersionNumber)
			return true
		})).Return(nil).Once()

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeRevision,
			ParentVersionID: &rootID,
		})

		assert.NoError(t, err)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Branch takes the next whole number over the lineage", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		revID := uuid.New()
		now := time.Now().UTC()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		rev := makeVersionNode(revID, projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, rootID, now.Add(time.Minute))

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, rev}, nil).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			assert.Equal(t, sharedModels.VersionNumberFromFloat(2.0), n.VersionNumber)
			assert.Equal(t, rootID, n.RootVersionID)
			assert.Equal(t, "alt-style", *n.BranchName)
			return true
		})).Return(nil).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeBranch,
			ParentVersionID: &revID,
			BranchName:      strPtr("alt-style"),
		})

		assert.NoError(t, err)
		assert.Equal(t, sharedModels.VersionNumberFromFloat(2.0), node.VersionNumber)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Merge is numbered like a branch", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		branchID := uuid.New()
		now := time.Now().UTC()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		branch := makeVersionNode(branchID, projectID, sharedModels.VersionTypeBranch, sharedModels.VersionNumberFromFloat(2.0), &rootID, rootID, now.Add(time.Minute))

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, branch}, nil).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			assert.Equal(t, sharedModels.VersionNumberFromFloat(3.0), n.VersionNumber)
			return true
		})).Return(nil).Once()

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeMerge,
			ParentVersionID: &branchID,
		})

		assert.NoError(t, err)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Branch without a name is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		parentID := uuid.New()
		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeBranch,
			ParentVersionID: &parentID,
			BranchName:      strPtr("   "),
		})

		assert.Nil(t, node)
		assert.True(t, errors.Is(err, sharedModels.ErrBranchNameRequired))
		mockVersionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Unknown parent leaves the store untouched", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, time.Now().UTC())
		// Родитель из другого проекта в срез не попадает и неотличим от несуществующего
		strangerID := uuid.New()

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root}, nil).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeRevision,
			ParentVersionID: &strangerID,
		})

		assert.Nil(t, node)
		assert.True(t, errors.Is(err, sharedModels.ErrInvalidParent))
		mockVersionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Original with a parent is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		parentID := uuid.New()
		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeOriginal,
			ParentVersionID: &parentID,
		})

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidInput))
		mockVersionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Revision without a parent is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID: projectID,
			Type:      sharedModels.VersionTypeRevision,
		})

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidParent))
	})

	t.Run("Unknown version type is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID: projectID,
			Type:      sharedModels.VersionType("remix"),
		})

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidVersionType))
	})

	t.Run("Linked generation record must exist", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		generationID := uuid.New()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(nil, sharedModels.ErrNotFound).Once()

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:          projectID,
			Type:               sharedModels.VersionTypeOriginal,
			LinkedGenerationID: &generationID,
		})

		assert.True(t, errors.Is(err, sharedModels.ErrGenerationRecordNotFound))
		mockVersionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockGenerationRepo.AssertExpectations(t)
	})

	t.Run("Linked generation record from another project is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		generationID := uuid.New()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(&sharedModels.GenerationRecord{
			ID:        generationID,
			ProjectID: uuid.New(), // чужой проект
		}, nil).Once()

		_, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:          projectID,
			Type:               sharedModels.VersionTypeOriginal,
			LinkedGenerationID: &generationID,
		})

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidInput))
		mockVersionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Number race retries with a fresh snapshot and converges", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		now := time.Now().UTC()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		racedRev := makeVersionNode(uuid.New(), projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, rootID, now.Add(time.Second))

		// Первая попытка видит только корень и берёт 1.1; конкурент успевает
		// первым, вставка падает с конфликтом. Второй срез уже содержит 1.1,
		// нумерация уходит на 1.2 и вставка проходит.
		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root}, nil).Once()
		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, racedRev}, nil).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			return n.VersionNumber == sharedModels.VersionNumberFromFloat(1.1)
		})).Return(sharedModels.ErrVersionNumberConflict).Once()
		mockVersionRepo.On("Create", ctx, mock.MatchedBy(func(n *sharedModels.VersionNode) bool {
			return n.VersionNumber == sharedModels.VersionNumberFromFloat(1.2)
		})).Return(nil).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeRevision,
			ParentVersionID: &rootID,
		})

		assert.NoError(t, err)
		assert.Equal(t, sharedModels.VersionNumberFromFloat(1.2), node.VersionNumber)
		mockVersionRepo.AssertNumberOfCalls(t, "ListByProject", 2)
		mockVersionRepo.AssertNumberOfCalls(t, "Create", 2)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Number race gives up after three attempts", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, time.Now().UTC())

		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root}, nil)
		mockVersionRepo.On("Create", ctx, mock.AnythingOfType("*models.VersionNode")).Return(sharedModels.ErrVersionNumberConflict)

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID:       projectID,
			Type:            sharedModels.VersionTypeRevision,
			ParentVersionID: &rootID,
		})

		assert.Nil(t, node)
		assert.True(t, errors.Is(err, sharedModels.ErrVersionNumberConflict))
		mockVersionRepo.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("Non-conflict insert error is not retried", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		dbError := errors.New("connection reset")
		mockVersionRepo.On("Create", ctx, mock.AnythingOfType("*models.VersionNode")).Return(dbError).Once()

		node, err := versionService.CreateVersion(ctx, service.CreateVersionInput{
			ProjectID: projectID,
			Type:      sharedModels.VersionTypeOriginal,
		})

		assert.Nil(t, node)
		assert.True(t, errors.Is(err, dbError))
		mockVersionRepo.AssertNumberOfCalls(t, "Create", 1)
	})
}

// TestGetLineage tests lineage resolution through the service
func TestGetLineage(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Returns the whole line resolved from the true root", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		revID := uuid.New()
		branchID := uuid.New()
		otherRootID := uuid.New()
		now := time.Now().UTC()

		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		rev := makeVersionNode(revID, projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, rootID, now.Add(time.Minute))
		branch := makeVersionNode(branchID, projectID, sharedModels.VersionTypeBranch, sharedModels.VersionNumberFromFloat(2.0), &revID, rootID, now.Add(2*time.Minute))
		// Посторонняя линия не должна попасть в выборку
		otherRoot := makeVersionNode(otherRootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, otherRootID, now)

		mockVersionRepo.On("GetByID", ctx, revID).Return(&rev, nil).Once()
		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, rev, branch, otherRoot}, nil).Once()

		lineage, err := versionService.GetLineage(ctx, revID)

		assert.NoError(t, err)
		assert.Len(t, lineage, 3)
		ids := make([]uuid.UUID, 0, len(lineage))
		for _, n := range lineage {
			ids = append(ids, n.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{rootID, revID, branchID}, ids)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Computed root wins over a stale stored rootVersionId", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		rootID := uuid.New()
		childID := uuid.New()
		now := time.Now().UTC()

		root := makeVersionNode(rootID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, rootID, now)
		// rootVersionId в записи протух и указывает в никуда
		child := makeVersionNode(childID, projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &rootID, uuid.New(), now.Add(time.Minute))

		mockVersionRepo.On("GetByID", ctx, childID).Return(&child, nil).Once()
		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{root, child}, nil).Once()

		lineage, err := versionService.GetLineage(ctx, childID)

		assert.NoError(t, err)
		assert.Len(t, lineage, 2)
	})

	t.Run("Cycle in parent references is reported, not looped", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		aID := uuid.New()
		bID := uuid.New()
		now := time.Now().UTC()
		a := makeVersionNode(aID, projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.1), &bID, aID, now)
		b := makeVersionNode(bID, projectID, sharedModels.VersionTypeRevision, sharedModels.VersionNumberFromFloat(1.2), &aID, aID, now)

		mockVersionRepo.On("GetByID", ctx, aID).Return(&a, nil).Once()
		mockVersionRepo.On("ListByProject", ctx, projectID).Return([]sharedModels.VersionNode{a, b}, nil).Once()

		lineage, err := versionService.GetLineage(ctx, aID)

		assert.Nil(t, lineage)
		assert.True(t, errors.Is(err, sharedModels.ErrCyclicLineage))
	})

	t.Run("Unknown node id", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		unknownID := uuid.New()
		mockVersionRepo.On("GetByID", ctx, unknownID).Return(nil, sharedModels.ErrNotFound).Once()

		_, err := versionService.GetLineage(ctx, unknownID)
		assert.True(t, errors.Is(err, sharedModels.ErrNotFound))
	})
}

// TestRetagStatus tests status changes without cascades
func TestRetagStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid status is stored as-is for the one node", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		nodeID := uuid.New()
		mockVersionRepo.On("UpdateStatus", ctx, nodeID, sharedModels.VersionStatusArchived).Return(nil).Once()

		err := versionService.RetagStatus(ctx, nodeID, sharedModels.VersionStatusArchived)

		assert.NoError(t, err)
		// Ровно один узел, никаких каскадов по соседям линии
		mockVersionRepo.AssertNumberOfCalls(t, "UpdateStatus", 1)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		err := versionService.RetagStatus(ctx, uuid.New(), sharedModels.VersionStatus("hidden"))

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidVersionStatus))
		mockVersionRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

// TestAddTags tests tag normalization
func TestAddTags(t *testing.T) {
	ctx := context.Background()

	t.Run("Tags are trimmed and empty ones dropped", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		nodeID := uuid.New()
		mockVersionRepo.On("AddTags", ctx, nodeID, []string{"герой", "финал"}).Return(nil).Once()

		err := versionService.AddTags(ctx, nodeID, []string{" герой ", "", "финал", "   "})

		assert.NoError(t, err)
		mockVersionRepo.AssertExpectations(t)
	})

	t.Run("Nothing usable means invalid input", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		err := versionService.AddTags(ctx, uuid.New(), []string{"  ", ""})

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidInput))
		mockVersionRepo.AssertNotCalled(t, "AddTags", mock.Anything, mock.Anything, mock.Anything)
	})
}

// TestLinkGeneration tests linking a node to a generation record
func TestLinkGeneration(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("Successful link", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		nodeID := uuid.New()
		generationID := uuid.New()
		node := makeVersionNode(nodeID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, nodeID, time.Now().UTC())

		mockVersionRepo.On("GetByID", ctx, nodeID).Return(&node, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(&sharedModels.GenerationRecord{
			ID:        generationID,
			ProjectID: projectID,
		}, nil).Once()
		mockVersionRepo.On("LinkGeneration", ctx, nodeID, generationID).Return(nil).Once()

		err := versionService.LinkGeneration(ctx, nodeID, generationID)

		assert.NoError(t, err)
		mockVersionRepo.AssertExpectations(t)
		mockGenerationRepo.AssertExpectations(t)
	})

	t.Run("Cross-project link is rejected", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		nodeID := uuid.New()
		generationID := uuid.New()
		node := makeVersionNode(nodeID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, nodeID, time.Now().UTC())

		mockVersionRepo.On("GetByID", ctx, nodeID).Return(&node, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(&sharedModels.GenerationRecord{
			ID:        generationID,
			ProjectID: uuid.New(),
		}, nil).Once()

		err := versionService.LinkGeneration(ctx, nodeID, generationID)

		assert.True(t, errors.Is(err, sharedModels.ErrInvalidInput))
		mockVersionRepo.AssertNotCalled(t, "LinkGeneration", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing generation record", func(t *testing.T) {
		mockVersionRepo := new(sharedMocks.VersionNodeRepository)
		mockGenerationRepo := new(sharedMocks.GenerationRecordRepository)
		versionService := service.NewVersionService(mockVersionRepo, mockGenerationRepo, zap.NewNop())

		nodeID := uuid.New()
		generationID := uuid.New()
		node := makeVersionNode(nodeID, projectID, sharedModels.VersionTypeOriginal, sharedModels.FirstVersionNumber, nil, nodeID, time.Now().UTC())

		mockVersionRepo.On("GetByID", ctx, nodeID).Return(&node, nil).Once()
		mockGenerationRepo.On("GetByID", ctx, generationID).Return(nil, sharedModels.ErrNotFound).Once()

		err := versionService.LinkGeneration(ctx, nodeID, generationID)

		assert.True(t, errors.Is(err, sharedModels.ErrGenerationRecordNotFound))
	})
}
