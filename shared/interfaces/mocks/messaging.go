package mocks

import (
	"context"

	sharedMessaging "inkwell-server/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock IllustrationTaskPublisher
type IllustrationTaskPublisher struct {
	mock.Mock
}

func (m *IllustrationTaskPublisher) PublishGenerationTask(ctx context.Context, payload sharedMessaging.IllustrationTaskPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// Mock ClientNotifier
type ClientNotifier struct {
	mock.Mock
}

func (m *ClientNotifier) Broadcast(topic string, messageType string, payload any) {
	m.Called(topic, messageType, payload)
}
