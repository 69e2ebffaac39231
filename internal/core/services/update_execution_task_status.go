package services

import (
	"context"
	"fmt"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

type updateExecutionTaskStatus struct {
	repo      ports.ExecutionTaskRepository
	publisher ports.ExecutionEventPublisher
	clock     ports.Clock
	metrics   ports.ExecutionMetrics
	logger    *logger.Logger
}

func NewUpdateExecutionTaskStatusUseCase(cfg ExecutionTaskServiceConfig) ports.ExecutionTaskStatusUpdater {
	cfg = cfg.withDefaults()
	return &updateExecutionTaskStatus{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

func (s *updateExecutionTaskStatus) UpdateStatus(ctx context.Context, id int64, status string) (*domain.ExecutionTask, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, taskNotFoundByID(id)
	}

	target, err := domain.ParseExecutionStatus(status)
	if err != nil {
		return nil, err
	}

	current := existing.Status
	if !current.CanTransitionTo(target) {
		s.logger.Warnw("execution_task_illegal_transition", "id", id, "from", current, "to", target)
		return nil, domain.NewError(domain.ErrIllegalTransition,
			fmt.Sprintf("Invalid status transition from %s to %s", current, target),
			nil,
			map[string]any{"task_id": id, "from": string(current), "to": string(target)},
		)
	}

	updated := existing.WithStatus(target, s.clock.Now())
	saved, err := s.repo.Update(ctx, id, updated)
	if err != nil {
		return nil, err
	}
	s.metrics.TaskTransitioned(current, target)
	s.logger.Infow("execution_task_status_updated", "id", id, "from", current, "to", target)

	if err := publishTransition(ctx, s.publisher, saved); err != nil {
		s.logger.Errorw("execution_task_publish_failed", "id", id, "status", target, "error", err)
		return nil, err
	}

	return saved, nil
}

// publishTransition emits exactly one notification for the status task has reached.
func publishTransition(ctx context.Context, publisher ports.ExecutionEventPublisher, task *domain.ExecutionTask) error {
	switch task.Status {
	case domain.StatusInProgress:
		return publisher.PublishExecutionStarted(ctx, task)
	case domain.StatusCompleted:
		return publisher.PublishExecutionCompleted(ctx, task)
	case domain.StatusFailed:
		return publisher.PublishExecutionFailed(ctx, task)
	default:
		return nil
	}
}

func taskNotFoundByID(id int64) error {
	return domain.NewError(domain.ErrNotFound,
		fmt.Sprintf("Execution task not found with id: %d", id),
		nil,
		map[string]any{"task_id": id},
	)
}

func taskNotFoundByServiceOrder(serviceOrderID int64) error {
	return domain.NewError(domain.ErrNotFound,
		fmt.Sprintf("Execution task not found for service order: %d", serviceOrderID),
		nil,
		map[string]any{"service_order_id": serviceOrderID},
	)
}
