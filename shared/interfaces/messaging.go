package interfaces

import (
	"context"

	"inkwell-server/shared/messaging"
)

// IllustrationTaskPublisher defines the interface for publishing illustration
// generation tasks to the worker queue.
//
//go:generate mockery --name IllustrationTaskPublisher --output ./mocks --outpkg mocks --case=underscore
type IllustrationTaskPublisher interface {
	// PublishGenerationTask отправляет задачу в очередь воркера.
	PublishGenerationTask(ctx context.Context, payload messaging.IllustrationTaskPayload) error
}
