package services

import (
	"context"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

type findExecutionTask struct {
	repo   ports.ExecutionTaskRepository
	logger *logger.Logger
}

func NewFindExecutionTaskUseCase(cfg ExecutionTaskServiceConfig) ports.ExecutionTaskFinder {
	cfg = cfg.withDefaults()
	return &findExecutionTask{repo: cfg.Repository, logger: cfg.Logger}
}

func (s *findExecutionTask) FindByID(ctx context.Context, id int64) (*domain.ExecutionTask, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFoundByID(id)
	}
	return task, nil
}

func (s *findExecutionTask) FindByServiceOrderID(ctx context.Context, serviceOrderID int64) (*domain.ExecutionTask, error) {
	task, err := s.repo.FindByServiceOrderID(ctx, serviceOrderID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFoundByServiceOrder(serviceOrderID)
	}
	return task, nil
}

func (s *findExecutionTask) FindAll(ctx context.Context, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	return s.repo.FindAll(ctx, req.Normalize())
}

// FindByStatus answers an unparseable status with an empty page; filter
// callers rely on "no match" rather than an error.
func (s *findExecutionTask) FindByStatus(ctx context.Context, status string, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	req = req.Normalize()
	parsed, err := domain.ParseExecutionStatus(status)
	if err != nil {
		s.logger.Debugw("execution_task_filter_unknown_status", "status", status)
		return domain.EmptyPage[domain.ExecutionTask](req), nil
	}
	return s.repo.FindByStatus(ctx, parsed, req)
}
