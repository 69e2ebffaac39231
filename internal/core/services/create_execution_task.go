package services

import (
	"context"
	"fmt"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

type createExecutionTask struct {
	repo    ports.ExecutionTaskRepository
	clock   ports.Clock
	metrics ports.ExecutionMetrics
	logger  *logger.Logger
}

func NewCreateExecutionTaskUseCase(cfg ExecutionTaskServiceConfig) ports.ExecutionTaskCreator {
	cfg = cfg.withDefaults()
	return &createExecutionTask{
		repo:    cfg.Repository,
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Create queues a new task. A previous task for the same service order only
// blocks creation while it is not FAILED.
func (s *createExecutionTask) Create(ctx context.Context, input ports.CreateExecutionTaskInput) (*domain.ExecutionTask, error) {
	task, err := domain.NewExecutionTask(domain.NewExecutionTaskParams{
		ServiceOrderID:      input.ServiceOrderID,
		CustomerID:          input.CustomerID,
		VehicleID:           input.VehicleID,
		VehicleLicensePlate: input.VehicleLicensePlate,
		Description:         input.Description,
		AssignedTechnician:  input.AssignedTechnician,
		Priority:            input.Priority,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByServiceOrderID(ctx, input.ServiceOrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != domain.StatusFailed {
		s.logger.Warnw("execution_task_create_conflict",
			"service_order_id", input.ServiceOrderID,
			"existing_id", existing.ID,
			"existing_status", existing.Status,
		)
		return nil, domain.NewError(domain.ErrConflict,
			fmt.Sprintf("Execution task already exists for service order: %d", input.ServiceOrderID),
			nil,
			map[string]any{"service_order_id": input.ServiceOrderID, "task_id": existing.ID, "status": string(existing.Status)},
		)
	}
	if existing != nil {
		s.logger.Infow("execution_task_requeue_after_failure",
			"service_order_id", input.ServiceOrderID,
			"failed_id", existing.ID,
		)
	}

	saved, err := s.repo.Insert(ctx, task)
	if err != nil {
		return nil, err
	}

	s.metrics.TaskCreated()
	s.logger.Infow("execution_task_created", "id", saved.ID, "service_order_id", saved.ServiceOrderID, "priority", saved.Priority)
	return saved, nil
}
