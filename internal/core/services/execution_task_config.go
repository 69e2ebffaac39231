package services

import (
	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

// ExecutionTaskServiceConfig carries the collaborators shared by every
// execution task use case.
type ExecutionTaskServiceConfig struct {
	Repository ports.ExecutionTaskRepository
	Publisher  ports.ExecutionEventPublisher
	Clock      ports.Clock
	Metrics    ports.ExecutionMetrics
	Logger     *logger.Logger
}

func (c ExecutionTaskServiceConfig) withDefaults() ExecutionTaskServiceConfig {
	if c.Clock == nil {
		c.Clock = ports.SystemClock{}
	}
	if c.Metrics == nil {
		c.Metrics = ports.NoopMetrics{}
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}
