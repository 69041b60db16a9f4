package messaging

// Queue Names
const (
	// IllustrationTaskQueueName — очередь задач генерации для воркера.
	IllustrationTaskQueueName = "illustration_generation_tasks"
	// IllustrationResultQueueName — очередь статусов/результатов генерации
	// обратно в novel-service.
	IllustrationResultQueueName = "illustration_generation_results"
)
