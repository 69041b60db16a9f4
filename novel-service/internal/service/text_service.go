package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell-server/novel-service/internal/textgen"
	"inkwell-server/shared/interfaces"
	"inkwell-server/shared/models"
)

const (
	// Хвост главы, который попадает в промт как контекст продолжения.
	chapterContextTailRunes = 4000

	streamTimeout = 5 * time.Minute

	wsMessageTypeTextChunk = "text_chunk"
)

// TextGenerationInput — один запрос помощи соавтора.
type TextGenerationInput struct {
	ChapterID   *uuid.UUID // глава-контекст; nil для свободной генерации
	Instruction string     // что сделать: продолжить сцену, описать героя и т.п.
	ContextText string     // выделенный пользователем фрагмент, если есть
	Stream      bool
}

// TextGenerationResult — ответ генерации. Для потокового режима текст пуст,
// клиент слушает ws-топик text:{requestId}.
type TextGenerationResult struct {
	RequestID uuid.UUID     `json:"request_id"`
	Streaming bool          `json:"streaming"`
	Text      string        `json:"text,omitempty"`
	Usage     textgen.Usage `json:"usage"`
}

// TextService — AI-ассистент письма поверх настроек рабочего пространства.
type TextService interface {
	// Generate выполняет запрос синхронно или запускает потоковую генерацию
	// и сразу возвращает requestId для подписки.
	Generate(ctx context.Context, projectID uuid.UUID, input TextGenerationInput) (*TextGenerationResult, error)
}

type textServiceImpl struct {
	projectRepo     interfaces.ProjectRepository
	chapterRepo     interfaces.ChapterRepository
	settings        SettingsService
	clients         map[string]textgen.Client
	defaultProvider string
	notifier        interfaces.ClientNotifier
	logger          *zap.Logger
}

// NewTextService creates a new instance of TextService.
// clients отображает имя провайдера на его клиента; defaultProvider
// используется, когда настройки ссылаются на незнакомого провайдера.
func NewTextService(
	projectRepo interfaces.ProjectRepository,
	chapterRepo interfaces.ChapterRepository,
	settings SettingsService,
	clients map[string]textgen.Client,
	defaultProvider string,
	notifier interfaces.ClientNotifier,
	logger *zap.Logger,
) TextService {
	return &textServiceImpl{
		projectRepo:     projectRepo,
		chapterRepo:     chapterRepo,
		settings:        settings,
		clients:         clients,
		defaultProvider: defaultProvider,
		notifier:        notifier,
		logger:          logger.Named("TextService"),
	}
}

func (s *textServiceImpl) Generate(ctx context.Context, projectID uuid.UUID, input TextGenerationInput) (*TextGenerationResult, error) {
	if strings.TrimSpace(input.Instruction) == "" {
		return nil, models.ErrInvalidInput
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var chapter *models.Chapter
	if input.ChapterID != nil {
		chapter, err = s.chapterRepo.GetByID(ctx, *input.ChapterID)
		if err != nil {
			return nil, err
		}
		if chapter.ProjectID != projectID {
			return nil, models.ErrInvalidInput
		}
	}

	appSettings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	client, providerName, err := s.pickClient(appSettings.TextProvider)
	if err != nil {
		return nil, err
	}

	systemPrompt := buildWritingPrompt(project, chapter)
	userInput := buildUserInput(input)
	params := textgen.Params{
		Model:       appSettings.TextModel,
		Temperature: &appSettings.TextTemperature,
		MaxTokens:   &appSettings.TextMaxTokens,
	}
	logFields := []zap.Field{
		zap.String("projectID", projectID.String()),
		zap.String("provider", providerName),
		zap.String("model", params.Model),
	}

	if !input.Stream {
		text, usage, err := client.GenerateText(ctx, systemPrompt, userInput, params)
		if err != nil {
			s.logger.Error("Text generation failed", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("%w: %v", models.ErrTextGenerationFailed, err)
		}
		return &TextGenerationResult{
			RequestID: uuid.New(),
			Text:      text,
			Usage:     usage,
		}, nil
	}

	requestID := uuid.New()
	s.logger.Info("Text stream started", append(logFields, zap.String("requestID", requestID.String()))...)
	// Стрим живёт дольше HTTP-запроса, поэтому отвязывается от его контекста.
	go s.streamToClients(requestID, client, systemPrompt, userInput, params, logFields)

	return &TextGenerationResult{RequestID: requestID, Streaming: true}, nil
}

func (s *textServiceImpl) streamToClients(requestID uuid.UUID, client textgen.Client, systemPrompt, userInput string, params textgen.Params, logFields []zap.Field) {
	ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
	defer cancel()

	topic := models.TextTopic(requestID)
	_, err := client.GenerateTextStream(ctx, systemPrompt, userInput, params, func(chunk string) error {
		s.notifier.Broadcast(topic, wsMessageTypeTextChunk, models.ClientTextChunk{
			RequestID: requestID.String(),
			Chunk:     chunk,
		})
		return nil
	})
	if err != nil {
		s.logger.Error("Text stream failed", append(logFields, zap.Error(err))...)
		s.notifier.Broadcast(topic, wsMessageTypeTextChunk, models.ClientTextChunk{
			RequestID: requestID.String(),
			Done:      true,
			Error:     "text generation failed",
		})
		return
	}
	s.notifier.Broadcast(topic, wsMessageTypeTextChunk, models.ClientTextChunk{
		RequestID: requestID.String(),
		Done:      true,
	})
}

func (s *textServiceImpl) pickClient(provider string) (textgen.Client, string, error) {
	if client, ok := s.clients[provider]; ok {
		return client, provider, nil
	}
	if client, ok := s.clients[s.defaultProvider]; ok {
		s.logger.Warn("Unknown text provider in settings, using default",
			zap.String("requested", provider),
			zap.String("default", s.defaultProvider))
		return client, s.defaultProvider, nil
	}
	return nil, "", fmt.Errorf("%w: провайдер '%s' не сконфигурирован", models.ErrTextGenerationFailed, provider)
}

// buildWritingPrompt собирает системный промт из фактов проекта и хвоста
// главы. Промт всегда на английском, манера письма берётся из рукописи.
func buildWritingPrompt(project *models.Project, chapter *models.Chapter) string {
	var b strings.Builder
	b.WriteString("You are a collaborative fiction co-writer embedded in a novel-writing tool. ")
	b.WriteString("Continue or transform the manuscript exactly as instructed, matching its language, tense, voice and tone. ")
	b.WriteString("Return prose only, without preamble or commentary.\n\n")

	b.WriteString("Project: ")
	b.WriteString(project.Title)
	b.WriteString("\n")
	if project.Genre != nil && *project.Genre != "" {
		b.WriteString("Genre: ")
		b.WriteString(*project.Genre)
		b.WriteString("\n")
	}
	if project.Synopsis != nil && *project.Synopsis != "" {
		b.WriteString("Synopsis: ")
		b.WriteString(*project.Synopsis)
		b.WriteString("\n")
	}

	if chapter != nil {
		b.WriteString("\nCurrent chapter: ")
		b.WriteString(chapter.Title)
		b.WriteString("\n")
		if tail := tailRunes(chapter.Content, chapterContextTailRunes); tail != "" {
			b.WriteString("Manuscript so far (most recent excerpt):\n")
			b.WriteString(tail)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func buildUserInput(input TextGenerationInput) string {
	if strings.TrimSpace(input.ContextText) == "" {
		return input.Instruction
	}
	return "Selected passage:\n" + input.ContextText + "\n\nInstruction: " + input.Instruction
}

func tailRunes(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[len(runes)-limit:])
}
