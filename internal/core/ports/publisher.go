package ports

import (
	"context"

	"github.com/cargarage/execution-service/internal/domain"
)

// ExecutionEventPublisher notifies other services of state changes. Failures
// are returned to the caller and never retried here.
type ExecutionEventPublisher interface {
	PublishExecutionStarted(ctx context.Context, task *domain.ExecutionTask) error
	// PublishExecutionCompleted also notifies the service-order service.
	PublishExecutionCompleted(ctx context.Context, task *domain.ExecutionTask) error
	// PublishExecutionFailed also sends the resource-unavailable notice.
	PublishExecutionFailed(ctx context.Context, task *domain.ExecutionTask) error
}

// EventSink receives a copy of every durable notification that was sent.
type EventSink interface {
	Broadcast(event domain.ExecutionEvent)
}
