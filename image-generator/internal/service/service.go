package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"inkwell-server/image-generator/internal/config"
	sharedMessaging "inkwell-server/shared/messaging"
)

// ErrImageGenerationFailed - ошибка при генерации изображения image-сервером.
var ErrImageGenerationFailed = errors.New("image generation failed")

// ErrImageSaveFailed - ошибка при сохранении файла.
var ErrImageSaveFailed = errors.New("image save failed")

// GenerateImageResult - результат генерации изображения.
type GenerateImageResult struct {
	ImageURL string
	Error    error
}

// ImageGenerationService определяет интерфейс для генерации и сохранения иллюстраций.
type ImageGenerationService interface {
	// GenerateAndStoreImage генерирует изображение по данным задачи, сохраняет его
	// и возвращает результат (URL или ошибку).
	GenerateAndStoreImage(ctx context.Context, task sharedMessaging.IllustrationTaskPayload) GenerateImageResult
}

type imageServiceImpl struct {
	logger        *zap.Logger
	serverConfig  config.ImageServerConfig
	client        *http.Client
	imageSavePath string
	imageBaseURL  string
}

// NewImageGenerationService создает новый экземпляр imageServiceImpl.
func NewImageGenerationService(logger *zap.Logger, cfg *config.Config) (ImageGenerationService, error) {
	if cfg.ImageSavePath == "" {
		return nil, errors.New("image save path (IMAGE_SAVE_PATH) is not configured")
	}
	if cfg.ImagePublicBaseURL == "" {
		return nil, errors.New("image public base URL (IMAGE_PUBLIC_BASE_URL) is not configured")
	}

	return &imageServiceImpl{
		logger:       logger,
		serverConfig: cfg.ImageServer,
		client: &http.Client{
			Timeout: time.Duration(cfg.ImageServer.Timeout) * time.Second,
		},
		imageSavePath: cfg.ImageSavePath,
		imageBaseURL:  strings.TrimSuffix(cfg.ImagePublicBaseURL, "/"),
	}, nil
}

// imageAPIRequest - структура запроса к image API.
type imageAPIRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GenerateAndStoreImage - реализует основную логику воркера.
// Промпт приходит уже собранным (enhanced и стилевой блок добавляет
// novel-service), воркер ничего к нему не дописывает.
func (s *imageServiceImpl) GenerateAndStoreImage(ctx context.Context, task sharedMessaging.IllustrationTaskPayload) GenerateImageResult {
	log := s.logger.With(
		zap.String("generation_id", task.GenerationID.String()),
		zap.String("project_id", task.ProjectID.String()),
		zap.String("model", task.Model),
	)
	log.Info("Generating illustration...")

	width, height := task.Width, task.Height
	if width <= 0 || height <= 0 {
		// Нормальный путь всегда заполняет размеры из настроек, сюда
		// попадают только задачи от старых версий сервера.
		log.Warn("Task without dimensions, defaulting to 832x1216",
			zap.Int("width", width), zap.Int("height", height))
		width, height = 832, 1216
	}

	// 1. Вызов image API
	imageData, err := s.callImageAPI(ctx, task.Prompt, task.Model, width, height)
	if err != nil {
		log.Error("Image API call failed", zap.Error(err))
		return GenerateImageResult{Error: fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)}
	}
	if len(imageData) == 0 {
		log.Error("Image API returned empty image data")
		return GenerateImageResult{Error: fmt.Errorf("%w: API returned empty data", ErrImageGenerationFailed)}
	}
	log.Info("Image data received", zap.Int("size_bytes", len(imageData)))

	// 2. Сохранение изображения в локальный файл.
	// Имя файла строится из GenerationID: повторная обработка той же задачи
	// перезапишет тот же файл, а не наплодит копий.
	fileName := fmt.Sprintf("%s.png", task.GenerationID.String())
	filePath := filepath.Join(s.imageSavePath, fileName)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		log.Error("Failed to save image to file", zap.String("path", filePath), zap.Error(err))
		return GenerateImageResult{Error: fmt.Errorf("%w: %v", ErrImageSaveFailed, err)}
	}
	log.Info("Image saved to file", zap.String("path", filePath))

	// 3. Формируем публичный URL
	imageURL := s.imageBaseURL + "/" + fileName
	log.Info("Public image URL generated", zap.String("url", imageURL))

	return GenerateImageResult{ImageURL: imageURL}
}

// callImageAPI - вызывает локальный image API и возвращает сырые байты картинки.
func (s *imageServiceImpl) callImageAPI(ctx context.Context, prompt, model string, width, height int) ([]byte, error) {
	log := s.logger.With(zap.String("api_url", s.serverConfig.BaseURL))

	reqPayload := imageAPIRequest{
		Prompt: prompt,
		Model:  model,
		Width:  width,
		Height: height,
	}
	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		log.Error("Failed to marshal image API request payload", zap.Error(err))
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := s.serverConfig.BaseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		log.Error("Failed to create image API request", zap.String("url", endpointURL), zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	log.Debug("Sending request to image API", zap.String("url", endpointURL))
	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("Failed to execute image API request", zap.Error(err))
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Error("Image API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if readErr != nil {
		log.Error("Failed to read image API response body", zap.Error(readErr))
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}

	log.Debug("Image API call successful")
	return bodyBytes, nil
}
