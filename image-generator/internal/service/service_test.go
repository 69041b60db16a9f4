package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"inkwell-server/image-generator/internal/config"
	"inkwell-server/image-generator/internal/service"
	sharedMessaging "inkwell-server/shared/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, apiURL, saveDir string) service.ImageGenerationService {
	t.Helper()
	cfg := &config.Config{
		ImageServer: config.ImageServerConfig{
			BaseURL: apiURL,
			Timeout: 5,
		},
		ImageSavePath:      saveDir,
		ImagePublicBaseURL: "http://localhost:8081/images/",
	}
	svc, err := service.NewImageGenerationService(zap.NewNop(), cfg)
	require.NoError(t, err)
	return svc
}

func TestGenerateAndStoreImage(t *testing.T) {
	ctx := context.Background()

	task := sharedMessaging.IllustrationTaskPayload{
		GenerationID: uuid.New(),
		ProjectID:    uuid.New(),
		Prompt:       "ancient library, candlelight",
		Model:        "sana-1.5",
		Width:        832,
		Height:       1216,
	}
	fakePNG := []byte("\x89PNG fake image bytes")

	t.Run("Saves the image and returns its public URL", func(t *testing.T) {
		var gotReq map[string]any
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/generate", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(fakePNG)
		}))
		defer apiServer.Close()

		saveDir := t.TempDir()
		svc := newTestService(t, apiServer.URL, saveDir)

		result := svc.GenerateAndStoreImage(ctx, task)

		require.NoError(t, result.Error)
		assert.Equal(t, "http://localhost:8081/images/"+task.GenerationID.String()+".png", result.ImageURL)

		// Промпт уходит в API как есть, без доработок на стороне воркера
		assert.Equal(t, "ancient library, candlelight", gotReq["prompt"])
		assert.Equal(t, float64(832), gotReq["width"])
		assert.Equal(t, float64(1216), gotReq["height"])

		saved, err := os.ReadFile(filepath.Join(saveDir, task.GenerationID.String()+".png"))
		require.NoError(t, err)
		assert.Equal(t, fakePNG, saved)
	})

	t.Run("Tasks without dimensions fall back to portrait defaults", func(t *testing.T) {
		var gotReq map[string]any
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_, _ = w.Write(fakePNG)
		}))
		defer apiServer.Close()

		svc := newTestService(t, apiServer.URL, t.TempDir())

		legacyTask := task
		legacyTask.Width = 0
		legacyTask.Height = 0
		result := svc.GenerateAndStoreImage(ctx, legacyTask)

		require.NoError(t, result.Error)
		assert.Equal(t, float64(832), gotReq["width"])
		assert.Equal(t, float64(1216), gotReq["height"])
	})

	t.Run("API failure is reported as a generation error", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer apiServer.Close()

		svc := newTestService(t, apiServer.URL, t.TempDir())

		result := svc.GenerateAndStoreImage(ctx, task)

		assert.True(t, errors.Is(result.Error, service.ErrImageGenerationFailed))
		// Тело ответа попадает в ошибку: его увидит клиент в error_details
		assert.Contains(t, result.Error.Error(), "model not loaded")
		assert.Empty(t, result.ImageURL)
	})

	t.Run("Empty image body is a generation error", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer apiServer.Close()

		svc := newTestService(t, apiServer.URL, t.TempDir())

		result := svc.GenerateAndStoreImage(ctx, task)

		assert.True(t, errors.Is(result.Error, service.ErrImageGenerationFailed))
	})

	t.Run("Unwritable save path is a save error", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(fakePNG)
		}))
		defer apiServer.Close()

		svc := newTestService(t, apiServer.URL, filepath.Join(t.TempDir(), "не существует"))

		result := svc.GenerateAndStoreImage(ctx, task)

		assert.True(t, errors.Is(result.Error, service.ErrImageSaveFailed))
	})

	t.Run("Missing configuration is rejected at construction", func(t *testing.T) {
		_, err := service.NewImageGenerationService(zap.NewNop(), &config.Config{
			ImagePublicBaseURL: "http://localhost:8081/images",
		})
		assert.Error(t, err)

		_, err = service.NewImageGenerationService(zap.NewNop(), &config.Config{
			ImageSavePath: t.TempDir(),
		})
		assert.Error(t, err)
	})
}
