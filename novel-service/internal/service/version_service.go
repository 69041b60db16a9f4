package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell-server/novel-service/internal/versiongraph"
	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

// createVersionAttempts — сколько раз повторяем нумерацию при гонке
// за номер версии, прежде чем отдать конфликт наверх.
const createVersionAttempts = 3

// CreateVersionInput описывает запрос на создание узла графа версий.
type CreateVersionInput struct {
	ProjectID          uuid.UUID
	Type               models.VersionType
	ParentVersionID    *uuid.UUID
	BranchName         *string
	LinkedGenerationID *uuid.UUID
	Title              string
	Description        string
	Tags               []string
	AIParameters       json.RawMessage
	Width              int
	Height             int
	GenerationTimeMs   int64
	FileSizeBytes      int64
}

// VersionService управляет графом версий иллюстраций: создание узлов с
// назначением номера, смена статуса, теги, имена веток и чтение линий.
type VersionService interface {
	CreateVersion(ctx context.Context, input CreateVersionInput) (*models.VersionNode, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.VersionNode, error)
	// GetLineage возвращает линию узла целиком: сначала разрешается
	// настоящий корень (по родительским ссылкам, не по кэшу rootVersionId),
	// затем собираются все узлы этой линии.
	GetLineage(ctx context.Context, id uuid.UUID) ([]models.VersionNode, error)
	RetagStatus(ctx context.Context, id uuid.UUID, status models.VersionStatus) error
	AddTags(ctx context.Context, id uuid.UUID, tags []string) error
	SetBranchName(ctx context.Context, id uuid.UUID, name string) error
	LinkGeneration(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error
}

type versionServiceImpl struct {
	versionRepo    interfaces.VersionNodeRepository
	generationRepo interfaces.GenerationRecordRepository
	logger         *zap.Logger
}

// NewVersionService creates a new instance of VersionService.
func NewVersionService(
	versionRepo interfaces.VersionNodeRepository,
	generationRepo interfaces.GenerationRecordRepository,
	logger *zap.Logger,
) VersionService {
	return &versionServiceImpl{
		versionRepo:    versionRepo,
		generationRepo: generationRepo,
		logger:         logger.Named("VersionService"),
	}
}

// CreateVersion валидирует вход, назначает номер версии и вставляет узел.
// Номер защищён уникальным индексом (root_version_id, version_number):
// проигравший гонку получает ErrVersionNumberConflict и повторяет нумерацию
// по свежему срезу графа, поэтому два конкурентных вызова никогда не
// оставляют в линии два одинаковых номера.
func (s *versionServiceImpl) CreateVersion(ctx context.Context, input CreateVersionInput) (*models.VersionNode, error) {
	logFields := []zap.Field{
		zap.String("projectID", input.ProjectID.String()),
		zap.String("type", string(input.Type)),
	}

	if !models.IsValidVersionType(input.Type) {
		s.logger.Warn("Rejected unknown version type", logFields...)
		return nil, models.ErrInvalidVersionType
	}
	if input.Type == models.VersionTypeOriginal && input.ParentVersionID != nil {
		s.logger.Warn("Original version must not reference a parent", logFields...)
		return nil, models.ErrInvalidInput
	}
	if input.Type != models.VersionTypeOriginal && input.ParentVersionID == nil {
		s.logger.Warn("Non-original version requires a parent", logFields...)
		return nil, models.ErrInvalidParent
	}
	if input.Type == models.VersionTypeBranch && (input.BranchName == nil || strings.TrimSpace(*input.BranchName) == "") {
		s.logger.Warn("Branch version without a branch name", logFields...)
		return nil, models.ErrBranchNameRequired
	}
	if input.LinkedGenerationID != nil {
		record, err := s.generationRepo.GetByID(ctx, *input.LinkedGenerationID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				s.logger.Warn("Linked generation record does not exist",
					append(logFields, zap.String("generationID", input.LinkedGenerationID.String()))...)
				return nil, models.ErrGenerationRecordNotFound
			}
			return nil, err
		}
		if record.ProjectID != input.ProjectID {
			s.logger.Warn("Linked generation record belongs to another project", logFields...)
			return nil, models.ErrInvalidInput
		}
	}

	var lastErr error
	for attempt := 1; attempt <= createVersionAttempts; attempt++ {
		node, err := s.buildVersionNode(ctx, input)
		if err != nil {
			return nil, err
		}
		err = s.versionRepo.Create(ctx, node)
		if err == nil {
			s.logger.Info("Version created",
				append(logFields,
					zap.String("versionNodeID", node.ID.String()),
					zap.String("versionNumber", node.VersionNumber.String()),
					zap.Int("attempt", attempt))...)
			return node, nil
		}
		if !errors.Is(err, models.ErrVersionNumberConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("Version number collision, renumbering from a fresh snapshot",
			append(logFields, zap.Int("attempt", attempt))...)
	}
	s.logger.Error("Version numbering did not converge", append(logFields, zap.Error(lastErr))...)
	return nil, models.ErrVersionNumberConflict
}

// buildVersionNode собирает узел по свежему срезу графа проекта.
// Вызывается заново на каждой попытке после конфликта номера.
func (s *versionServiceImpl) buildVersionNode(ctx context.Context, input CreateVersionInput) (*models.VersionNode, error) {
	now := time.Now().UTC()
	node := &models.VersionNode{
		ID:                 uuid.New(),
		ProjectID:          input.ProjectID,
		Type:               input.Type,
		ParentVersionID:    input.ParentVersionID,
		BranchName:         input.BranchName,
		Status:             models.VersionStatusActive,
		LinkedGenerationID: input.LinkedGenerationID,
		Metadata: models.VersionMetadata{
			Title:            input.Title,
			Description:      input.Description,
			Tags:             input.Tags,
			CreatedAt:        now,
			UpdatedAt:        now,
			AIParameters:     input.AIParameters,
			Width:            input.Width,
			Height:           input.Height,
			GenerationTimeMs: input.GenerationTimeMs,
			FileSizeBytes:    input.FileSizeBytes,
		},
	}

	if input.Type == models.VersionTypeOriginal {
		node.RootVersionID = node.ID
		node.VersionNumber = models.FirstVersionNumber
		return node, nil
	}

	nodes, err := s.versionRepo.ListByProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	snap := versiongraph.NewSnapshot(nodes)

	parent, ok := snap.Get(*input.ParentVersionID)
	if !ok {
		s.logger.Warn("Parent version not found in project graph",
			zap.String("parentVersionID", input.ParentVersionID.String()),
			zap.String("projectID", input.ProjectID.String()))
		return nil, models.ErrInvalidParent
	}

	root, err := snap.ResolveRoot(parent.ID)
	if err != nil {
		// Цикл или оборванный родитель — порча данных, не пишем поверх неё.
		s.logger.Error("Parent lineage failed to resolve",
			zap.String("parentVersionID", parent.ID.String()), zap.Error(err))
		return nil, err
	}
	siblings := snap.SiblingsOfRoot(root.ID)

	node.RootVersionID = root.ID
	switch input.Type {
	case models.VersionTypeRevision:
		node.VersionNumber = nextRevisionNumber(parent.VersionNumber, siblings)
	default: // branch и merge нумеруются следующим целым поверх линии
		node.VersionNumber = nextWholeNumber(siblings)
	}
	return node, nil
}

// nextRevisionNumber — первая свободная десятая после номера родителя.
// В обычном случае это parent + 0.1; занятые десятые пропускаются, чтобы
// повторная попытка после конфликта сходилась.
func nextRevisionNumber(parent models.VersionNumber, siblings []models.VersionNode) models.VersionNumber {
	taken := make(map[models.VersionNumber]struct{}, len(siblings))
	for i := range siblings {
		taken[siblings[i].VersionNumber] = struct{}{}
	}
	n := parent.NextRevision()
	for {
		if _, used := taken[n]; !used {
			return n
		}
		n = n.NextRevision()
	}
}

// nextWholeNumber — следующее целое над максимальным номером линии.
func nextWholeNumber(siblings []models.VersionNode) models.VersionNumber {
	max := models.FirstVersionNumber
	for i := range siblings {
		if siblings[i].VersionNumber > max {
			max = siblings[i].VersionNumber
		}
	}
	return max.NextWhole()
}

func (s *versionServiceImpl) GetVersion(ctx context.Context, id uuid.UUID) (*models.VersionNode, error) {
	return s.versionRepo.GetByID(ctx, id)
}

func (s *versionServiceImpl) GetLineage(ctx context.Context, id uuid.UUID) ([]models.VersionNode, error) {
	node, err := s.versionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes, err := s.versionRepo.ListByProject(ctx, node.ProjectID)
	if err != nil {
		return nil, err
	}
	snap := versiongraph.NewSnapshot(nodes)
	s.logGraphCorruption(snap, node.ProjectID)

	root, err := snap.ResolveRoot(id)
	if err != nil {
		return nil, err
	}
	return snap.SiblingsOfRoot(root.ID), nil
}

func (s *versionServiceImpl) RetagStatus(ctx context.Context, id uuid.UUID, status models.VersionStatus) error {
	if !models.IsValidVersionStatus(status) {
		s.logger.Warn("Rejected unknown version status",
			zap.String("versionNodeID", id.String()), zap.String("status", string(status)))
		return models.ErrInvalidVersionStatus
	}
	// Без каскадов: вытеснение соседей вычисляется при чтении, а не хранится.
	return s.versionRepo.UpdateStatus(ctx, id, status)
}

func (s *versionServiceImpl) AddTags(ctx context.Context, id uuid.UUID, tags []string) error {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		s.logger.Warn("AddTags called without usable tags", zap.String("versionNodeID", id.String()))
		return models.ErrInvalidInput
	}
	return s.versionRepo.AddTags(ctx, id, cleaned)
}

func (s *versionServiceImpl) SetBranchName(ctx context.Context, id uuid.UUID, name string) error {
	if strings.TrimSpace(name) == "" {
		return models.ErrBranchNameRequired
	}
	return s.versionRepo.SetBranchName(ctx, id, strings.TrimSpace(name))
}

func (s *versionServiceImpl) LinkGeneration(ctx context.Context, id uuid.UUID, generationID uuid.UUID) error {
	node, err := s.versionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	record, err := s.generationRepo.GetByID(ctx, generationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrGenerationRecordNotFound
		}
		return err
	}
	if record.ProjectID != node.ProjectID {
		s.logger.Warn("Refusing cross-project generation link",
			zap.String("versionNodeID", id.String()),
			zap.String("generationID", generationID.String()))
		return models.ErrInvalidInput
	}
	return s.versionRepo.LinkGeneration(ctx, id, generationID)
}

// logGraphCorruption фиксирует испорченные линии и расхождения корней.
// Порча не роняет операцию: затронутые узлы просто исключены из выборок.
func (s *versionServiceImpl) logGraphCorruption(snap *versiongraph.Snapshot, projectID uuid.UUID) {
	for _, c := range snap.CorruptNodes() {
		s.logger.Error("Version lineage is corrupt, node excluded",
			zap.String("projectID", projectID.String()),
			zap.String("versionNodeID", c.NodeID.String()),
			zap.Error(c.Err))
	}
	for _, id := range snap.RootMismatches() {
		s.logger.Warn("Stored rootVersionId disagrees with computed root",
			zap.String("projectID", projectID.String()),
			zap.String("versionNodeID", id.String()))
	}
}
