// Package textgen содержит клиентов текстовой генерации: OpenAI-совместимые
// API (OpenRouter) и локальная Ollama. Выбор реализации делается фабрикой
// по имени провайдера.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Провайдеры текстовой генерации.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

const fallbackEncoding = "cl100k_base"

// ErrGenerationFailed - ошибка при генерации текста AI.
var ErrGenerationFailed = errors.New("ошибка генерации текста AI")

var (
	textRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_text_requests_total",
			Help: "Total number of requests to text generation providers.",
		},
		[]string{"provider", "model", "status"},
	)
	textRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_text_request_duration_seconds",
			Help:    "Histogram of text generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)
	textPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_text_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)
	textCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_text_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider", "model"},
	)
)

// Params — параметры одного запроса генерации.
// Указатели отличают 0/0.0 от отсутствия значения.
type Params struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Usage — токены одного запроса. Для стриминга значения могут быть
// оценкой через tiktoken, если провайдер не прислал финальный блок usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client — текстовая генерация: синхронная и потоковая.
//
//go:generate mockery --name Client --output ./mocks --outpkg mocks --case=underscore
type Client interface {
	// GenerateText возвращает весь сгенерированный текст одним куском.
	GenerateText(ctx context.Context, systemPrompt, userInput string, params Params) (string, Usage, error)

	// GenerateTextStream вызывает chunkHandler на каждый фрагмент.
	// Ошибка обработчика прерывает стрим.
	GenerateTextStream(ctx context.Context, systemPrompt, userInput string, params Params, chunkHandler func(string) error) (Usage, error)
}

// Config — подключение к провайдеру.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient создает клиента текстовой генерации по имени провайдера.
func NewClient(provider string, cfg Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenRouter:
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("Text client created",
			zap.String("provider", ProviderOpenRouter),
			zap.String("baseURL", openaiConfig.BaseURL),
			zap.Duration("timeout", cfg.Timeout))
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			logger: logger.Named("OpenRouterClient"),
		}, nil
	case ProviderOllama:
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("неизвестный провайдер текстовой генерации: '%s'", provider)
	}
}

// --- OpenAI-compatible client (OpenRouter) ---

type openAIClient struct {
	client *openaigo.Client
	logger *zap.Logger
}

var _ Client = (*openAIClient)(nil)

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params Params) (string, Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: системный промт пуст", ErrGenerationFailed)
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    chatMessages(systemPrompt, userInput),
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Text generation request failed",
			zap.String("model", params.Model), zap.Duration("duration", duration), zap.Error(err))
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrGenerationFailed)
	}

	textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "success"}).Inc()
	textRequestDuration.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model}).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
		observeTokens(ProviderOpenRouter, params.Model, usage)
	}

	c.logger.Debug("Text generated",
		zap.String("model", params.Model),
		zap.Duration("duration", duration),
		zap.Int("chars", len(resp.Choices[0].Message.Content)),
		zap.Int("totalTokens", usage.TotalTokens))
	return resp.Choices[0].Message.Content, usage, nil
}

func (c *openAIClient) GenerateTextStream(ctx context.Context, systemPrompt, userInput string, params Params, chunkHandler func(string) error) (Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		return usage, fmt.Errorf("%w: системный промт пуст для стриминга", ErrGenerationFailed)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openaigo.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    chatMessages(systemPrompt, userInput),
		Stream:      true,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})
	if err != nil {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error_stream_init"}).Inc()
		return usage, fmt.Errorf("%w: ошибка создания стрима: %v", ErrGenerationFailed, err)
	}
	defer stream.Close()

	startTime := time.Now()
	var finalUsage openaigo.Usage
	var completionBuilder strings.Builder

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.logger.Error("Stream read failed", zap.String("model", params.Model), zap.Error(err))
			textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error_stream_read"}).Inc()
			return usage, fmt.Errorf("%w: ошибка чтения стрима: %v", ErrGenerationFailed, err)
		}

		// OpenRouter присылает usage отдельным финальным блоком
		if response.Usage != nil && response.Usage.TotalTokens > 0 {
			finalUsage = *response.Usage
		}
		if len(response.Choices) > 0 {
			chunk := response.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			completionBuilder.WriteString(chunk)
			if err := chunkHandler(chunk); err != nil {
				textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "error_chunk_handler"}).Inc()
				return usage, fmt.Errorf("ошибка обработчика стрима: %w", err)
			}
		}
	}
	duration := time.Since(startTime)

	if finalUsage.TotalTokens > 0 {
		usage.PromptTokens = finalUsage.PromptTokens
		usage.CompletionTokens = finalUsage.CompletionTokens
		usage.TotalTokens = finalUsage.TotalTokens
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "success_stream"}).Inc()
	} else {
		// Финальный блок пришёл не от всех моделей: оцениваем токены сами
		usage = estimateUsage(params.Model, systemPrompt, userInput, completionBuilder.String())
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model, "status": "success_stream_estimated"}).Inc()
	}
	textRequestDuration.With(prometheus.Labels{"provider": ProviderOpenRouter, "model": params.Model}).Observe(duration.Seconds())
	observeTokens(ProviderOpenRouter, params.Model, usage)

	c.logger.Debug("Text stream finished",
		zap.String("model", params.Model),
		zap.Duration("duration", duration),
		zap.Int("totalTokens", usage.TotalTokens))
	return usage, nil
}

// --- Ollama client ---

type ollamaClient struct {
	client  *api.Client
	timeout time.Duration
	logger  *zap.Logger
}

var _ Client = (*ollamaClient)(nil)

func newOllamaClient(cfg Config, logger *zap.Logger) (Client, error) {
	// api.NewClient требует URL без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	logger.Info("Text client created",
		zap.String("provider", ProviderOllama),
		zap.String("baseURL", baseURL),
		zap.Duration("timeout", cfg.Timeout))
	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.Timeout}),
		timeout: cfg.Timeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params Params) (string, Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: системный промт пуст", ErrGenerationFailed)
	}

	req := &api.ChatRequest{
		Model:    params.Model,
		Messages: ollamaMessages(systemPrompt, userInput),
		Stream:   func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Ollama request failed",
			zap.String("model", params.Model), zap.Duration("duration", duration), zap.Error(err))
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrGenerationFailed)
	}

	textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "success"}).Inc()
	textRequestDuration.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model}).Observe(duration.Seconds())

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	observeTokens(ProviderOllama, params.Model, usage)
	return resp.Message.Content, usage, nil
}

func (c *ollamaClient) GenerateTextStream(ctx context.Context, systemPrompt, userInput string, params Params, chunkHandler func(string) error) (Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		return usage, fmt.Errorf("%w: системный промт пуст для стриминга", ErrGenerationFailed)
	}

	req := &api.ChatRequest{
		Model:    params.Model,
		Messages: ollamaMessages(systemPrompt, userInput),
		Stream:   func(b bool) *bool { return &b }(true),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	err := c.client.Chat(requestCtx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			if err := chunkHandler(resp.Message.Content); err != nil {
				return fmt.Errorf("ошибка обработчика стрима: %w", err)
			}
		}
		if resp.Done {
			usage.PromptTokens = resp.PromptEvalCount
			usage.CompletionTokens = resp.EvalCount
			usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
			if resp.DoneReason != "" && resp.DoneReason != "stop" {
				c.logger.Warn("Ollama stream finished abnormally",
					zap.String("model", params.Model), zap.String("reason", resp.DoneReason))
			}
		}
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "error_stream"}).Inc()
		return usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	textRequestsTotal.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model, "status": "success_stream"}).Inc()
	textRequestDuration.With(prometheus.Labels{"provider": ProviderOllama, "model": params.Model}).Observe(duration.Seconds())
	observeTokens(ProviderOllama, params.Model, usage)
	return usage, nil
}

// --- helpers ---

func chatMessages(systemPrompt, userInput string) []openaigo.ChatCompletionMessage {
	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}
	return messages
}

func ollamaMessages(systemPrompt, userInput string) []api.Message {
	messages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}
	return messages
}

// estimateUsage считает токены через tiktoken, когда провайдер не прислал usage.
func estimateUsage(model, systemPrompt, userInput, completion string) Usage {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Модели OpenRouter tiktoken не знает, cl100k_base достаточно для оценки
		tke, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return Usage{}
		}
	}
	prompt := len(tke.Encode(systemPrompt, nil, nil)) + len(tke.Encode(userInput, nil, nil))
	compl := len(tke.Encode(completion, nil, nil))
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: compl,
		TotalTokens:      prompt + compl,
	}
}

func observeTokens(provider, model string, usage Usage) {
	if usage.TotalTokens <= 0 {
		return
	}
	textPromptTokens.With(prometheus.Labels{"provider": provider, "model": model}).Observe(float64(usage.PromptTokens))
	textCompletionTokens.With(prometheus.Labels{"provider": provider, "model": model}).Observe(float64(usage.CompletionTokens))
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
