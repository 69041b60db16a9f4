package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell-server/novel-service/internal/versiongraph"
	"inkwell-server/shared/interfaces"
	sharedMessaging "inkwell-server/shared/messaging"
	"inkwell-server/shared/models"
)

// GenerateIllustrationInput — запрос на генерацию иллюстрации.
// Пустые provider/model/размеры добираются из настроек рабочего пространства.
type GenerateIllustrationInput struct {
	ProjectID      uuid.UUID
	CharacterID    *uuid.UUID
	Prompt         string
	EnhancedPrompt *string
	Provider       string
	Model          string
	Width          int
	Height         int
	IsFree         bool
}

// GalleryQuery описывает один запрос галереи: пагинация истории генераций
// плюс чистые фильтры/сортировка поверх обогащённого списка.
type GalleryQuery struct {
	CharacterID *uuid.UUID
	Limit       int
	Offset      int
	Filter      versiongraph.Filter
	Sort        versiongraph.SortKey
	CustomOrder []uuid.UUID
}

// IllustrationService — оркестрация генераций и галереи: постановка задач
// воркеру, конкурентное чтение двух источников и обогащение.
type IllustrationService interface {
	// RequestGeneration создаёт запись генерации (pending) и кладёт задачу
	// в очередь воркера. При недоступности очереди запись сразу помечается
	// failed, частичных состояний не остаётся.
	RequestGeneration(ctx context.Context, input GenerateIllustrationInput) (*models.GenerationRecord, error)

	// GetGallery возвращает обогащённый, отфильтрованный и отсортированный
	// список иллюстраций проекта. Срыв загрузки графа не прячет историю
	// генераций: записи отдаются необогащёнными.
	GetGallery(ctx context.Context, projectID uuid.UUID, q GalleryQuery) ([]versiongraph.EnrichedRecord, error)

	// GetIllustration возвращает одну запись, обогащённую по графу проекта.
	GetIllustration(ctx context.Context, id uuid.UUID) (*versiongraph.EnrichedRecord, error)
}

type illustrationServiceImpl struct {
	generationRepo interfaces.GenerationRecordRepository
	versionRepo    interfaces.VersionNodeRepository
	settings       SettingsService
	publisher      interfaces.IllustrationTaskPublisher
	logger         *zap.Logger

	refresh refreshRegistry
}

// NewIllustrationService creates a new instance of IllustrationService.
func NewIllustrationService(
	generationRepo interfaces.GenerationRecordRepository,
	versionRepo interfaces.VersionNodeRepository,
	settings SettingsService,
	publisher interfaces.IllustrationTaskPublisher,
	logger *zap.Logger,
) IllustrationService {
	return &illustrationServiceImpl{
		generationRepo: generationRepo,
		versionRepo:    versionRepo,
		settings:       settings,
		publisher:      publisher,
		logger:         logger.Named("IllustrationService"),
	}
}

func (s *illustrationServiceImpl) RequestGeneration(ctx context.Context, input GenerateIllustrationInput) (*models.GenerationRecord, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, models.ErrInvalidInput
	}

	if input.Provider == "" || input.Model == "" || input.Width <= 0 || input.Height <= 0 {
		settings, err := s.settings.GetSettings(ctx)
		if err != nil {
			s.logger.Error("Failed to load settings for generation defaults", zap.Error(err))
			return nil, err
		}
		if input.Provider == "" {
			input.Provider = settings.ImageProvider
		}
		if input.Model == "" {
			input.Model = settings.ImageModel
		}
		if input.Width <= 0 {
			input.Width = settings.ImageWidth
		}
		if input.Height <= 0 {
			input.Height = settings.ImageHeight
		}
	}

	record := &models.GenerationRecord{
		ID:             uuid.New(),
		ProjectID:      input.ProjectID,
		CharacterID:    input.CharacterID,
		OriginalPrompt: input.Prompt,
		EnhancedPrompt: input.EnhancedPrompt,
		Provider:       input.Provider,
		Model:          input.Model,
		IsFree:         input.IsFree,
		Status:         models.GenerationStatusPending,
		Width:          input.Width,
		Height:         input.Height,
		CreatedAt:      time.Now().UTC(),
	}
	logFields := []zap.Field{
		zap.String("generationID", record.ID.String()),
		zap.String("projectID", record.ProjectID.String()),
		zap.String("provider", record.Provider),
	}

	if err := s.generationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	prompt := record.OriginalPrompt
	if record.EnhancedPrompt != nil && *record.EnhancedPrompt != "" {
		prompt = *record.EnhancedPrompt
	}
	err := s.publisher.PublishGenerationTask(ctx, sharedMessaging.IllustrationTaskPayload{
		GenerationID: record.ID,
		ProjectID:    record.ProjectID,
		Prompt:       prompt,
		Provider:     record.Provider,
		Model:        record.Model,
		Width:        record.Width,
		Height:       record.Height,
	})
	if err != nil {
		s.logger.Error("Failed to publish generation task, marking record failed",
			append(logFields, zap.Error(err))...)
		msg := "generation task could not be queued"
		if updErr := s.generationRepo.UpdateStatus(ctx, record.ID, models.GenerationStatusFailed, nil, &msg); updErr != nil {
			s.logger.Error("Failed to mark generation record failed", append(logFields, zap.Error(updErr))...)
		}
		return nil, err
	}

	s.logger.Info("Generation task queued", logFields...)
	return record, nil
}

func (s *illustrationServiceImpl) GetGallery(ctx context.Context, projectID uuid.UUID, q GalleryQuery) ([]versiongraph.EnrichedRecord, error) {
	logFields := []zap.Field{zap.String("projectID", projectID.String())}
	token := s.refresh.begin(projectID)

	// Два источника живут независимо и читаются конкурентно: отказ одного
	// не блокирует второй.
	var (
		wg         sync.WaitGroup
		records    []models.GenerationRecord
		recordsErr error
		nodes      []models.VersionNode
		nodesErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		records, recordsErr = s.generationRepo.ListByProject(ctx, projectID, q.CharacterID, q.Limit, q.Offset)
	}()
	go func() {
		defer wg.Done()
		nodes, nodesErr = s.versionRepo.ListByProject(ctx, projectID)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.refresh.isCurrent(projectID, token) {
		// Ответ пережил более свежий запрос той же галереи: отдавать его
		// нельзя, иначе клиент смешает два разных среза.
		s.logger.Debug("Discarding stale gallery refresh", append(logFields, zap.Uint64("token", token))...)
		return nil, models.ErrStaleRefresh
	}
	if recordsErr != nil {
		// Без истории генераций показывать нечего: версии сами по себе
		// не отображаются.
		s.logger.Error("Failed to fetch generation history", append(logFields, zap.Error(recordsErr))...)
		return nil, recordsErr
	}
	if nodesErr != nil {
		s.logger.Warn("Version graph fetch failed, serving unenriched records",
			append(logFields, zap.Error(nodesErr))...)
		nodes = nil
	}

	snap := versiongraph.NewSnapshot(nodes)
	s.logGraphCorruption(snap, projectID)

	enrichedList := versiongraph.Enrich(records, snap)
	enrichedList = versiongraph.Apply(enrichedList, q.Filter)
	enrichedList = versiongraph.Sort(enrichedList, q.Sort, q.CustomOrder)
	return enrichedList, nil
}

func (s *illustrationServiceImpl) GetIllustration(ctx context.Context, id uuid.UUID) (*versiongraph.EnrichedRecord, error) {
	record, err := s.generationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes, err := s.versionRepo.ListByProject(ctx, record.ProjectID)
	if err != nil {
		s.logger.Warn("Version graph fetch failed, serving unenriched record",
			zap.String("generationID", id.String()), zap.Error(err))
		nodes = nil
	}
	snap := versiongraph.NewSnapshot(nodes)
	s.logGraphCorruption(snap, record.ProjectID)

	enrichedList := versiongraph.Enrich([]models.GenerationRecord{*record}, snap)
	return &enrichedList[0], nil
}

// logGraphCorruption дублирует логику version_service: обе службы читают
// общий граф и одинаково сигналят о порче.
func (s *illustrationServiceImpl) logGraphCorruption(snap *versiongraph.Snapshot, projectID uuid.UUID) {
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

// refreshRegistry выдаёт монотонные токены обновления по проектам.
// Токен, переставший быть последним, означает устаревший ответ.
type refreshRegistry struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]uint64
}

func (r *refreshRegistry) begin(projectID uuid.UUID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokens == nil {
		r.tokens = make(map[uuid.UUID]uint64)
	}
	r.tokens[projectID]++
	return r.tokens[projectID]
}

func (r *refreshRegistry) isCurrent(projectID uuid.UUID, token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[projectID] == token
}
