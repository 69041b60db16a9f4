package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"inkwell-server/image-generator/internal/service"
	sharedMessaging "inkwell-server/shared/messaging"
)

// Mock ImageGenerationService
type ImageGenerationService struct {
	mock.Mock
}

func (m *ImageGenerationService) GenerateAndStoreImage(ctx context.Context, task sharedMessaging.IllustrationTaskPayload) service.GenerateImageResult {
	args := m.Called(ctx, task)
	return args.Get(0).(service.GenerateImageResult)
}

// Mock ResultPublisher
type ResultPublisher struct {
	mock.Mock
}

func (m *ResultPublisher) Publish(ctx context.Context, payload sharedMessaging.IllustrationResultPayload, correlationID string) error {
	args := m.Called(ctx, payload, correlationID)
	return args.Error(0)
}
