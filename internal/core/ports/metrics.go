package ports

import "github.com/cargarage/execution-service/internal/domain"

type ExecutionMetrics interface {
	TaskCreated()
	TaskTransitioned(from, to domain.ExecutionStatus)
	EventReceived(eventType, outcome string)
	EventPublished(eventType, target, outcome string)
}

type NoopMetrics struct{}

func (NoopMetrics) TaskCreated()                                     {}
func (NoopMetrics) TaskTransitioned(from, to domain.ExecutionStatus) {}
func (NoopMetrics) EventReceived(eventType, outcome string)          {}
func (NoopMetrics) EventPublished(eventType, target, outcome string) {}
