package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

const DefaultFailureReason = "Execution failed"

type failExecutionTask struct {
	repo      ports.ExecutionTaskRepository
	publisher ports.ExecutionEventPublisher
	clock     ports.Clock
	metrics   ports.ExecutionMetrics
	logger    *logger.Logger
}

func NewFailExecutionTaskUseCase(cfg ExecutionTaskServiceConfig) ports.ExecutionTaskFailer {
	cfg = cfg.withDefaults()
	return &failExecutionTask{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

func (s *failExecutionTask) FailByID(ctx context.Context, id int64, reason string) (*domain.ExecutionTask, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, taskNotFoundByID(id)
	}
	return s.fail(ctx, existing, reason)
}

func (s *failExecutionTask) FailByServiceOrderID(ctx context.Context, serviceOrderID int64, reason string) (*domain.ExecutionTask, error) {
	existing, err := s.repo.FindByServiceOrderID(ctx, serviceOrderID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, taskNotFoundByServiceOrder(serviceOrderID)
	}
	return s.fail(ctx, existing, reason)
}

// fail compensates a task that has not been resolved yet. Terminal tasks are
// rejected so a late compensation never rewrites a finished outcome.
func (s *failExecutionTask) fail(ctx context.Context, existing *domain.ExecutionTask, reason string) (*domain.ExecutionTask, error) {
	if existing.IsTerminal() {
		return nil, domain.NewError(domain.ErrIllegalTransition,
			fmt.Sprintf("Cannot fail execution task in status: %s", existing.Status),
			nil,
			map[string]any{"task_id": existing.ID, "service_order_id": existing.ServiceOrderID, "from": string(existing.Status)},
		)
	}

	if strings.TrimSpace(reason) == "" {
		reason = DefaultFailureReason
	}

	previous := existing.Status
	failed := existing.WithFailure(reason, s.clock.Now())
	saved, err := s.repo.Update(ctx, existing.ID, failed)
	if err != nil {
		return nil, err
	}
	s.metrics.TaskTransitioned(previous, domain.StatusFailed)
	s.logger.Infow("execution_task_failed",
		"id", saved.ID,
		"service_order_id", saved.ServiceOrderID,
		"from", previous,
		"reason", reason,
	)

	if err := s.publisher.PublishExecutionFailed(ctx, saved); err != nil {
		s.logger.Errorw("execution_task_publish_failed", "id", saved.ID, "status", domain.StatusFailed, "error", err)
		return nil, err
	}

	return saved, nil
}
