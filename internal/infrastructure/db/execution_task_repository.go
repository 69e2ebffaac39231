package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type executionTaskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExecutionTaskRepository(db *gorm.DB, log *logger.Logger) ports.ExecutionTaskRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &executionTaskRepository{db: db, log: log}
}

// Insert stores a new task at version 1 and returns it with its assigned id.
func (r *executionTaskRepository) Insert(ctx context.Context, task *domain.ExecutionTask) (*domain.ExecutionTask, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	model := modelFromDomain(task)
	model.ID = 0
	model.Version = 1
	if model.CreatedAt.IsZero() {
		model.CreatedAt = r.db.NowFunc()
	}
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = model.CreatedAt
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.log.Errorw("execution_task_repo_insert_failed", "service_order_id", task.ServiceOrderID, "error", err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewError(domain.ErrConflict,
				fmt.Sprintf("Execution task already exists for service order: %d", task.ServiceOrderID),
				err,
				map[string]any{"service_order_id": task.ServiceOrderID},
			)
		}
		return nil, domain.WrapTransport(err, "failed to insert execution task", map[string]any{"service_order_id": task.ServiceOrderID})
	}

	r.log.Infow("execution_task_repo_insert_ok", "id", model.ID, "service_order_id", model.ServiceOrderID)
	return model.toDomain(), nil
}

// Update overwrites the mutable fields of task id, but only if the stored row
// still carries task.Version. A lost race yields a stale write error.
func (r *executionTaskRepository) Update(ctx context.Context, id int64, task *domain.ExecutionTask) (*domain.ExecutionTask, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	model := modelFromDomain(task)
	values := map[string]any{
		"customer_id":           model.CustomerID,
		"vehicle_id":            model.VehicleID,
		"vehicle_license_plate": model.VehicleLicensePlate,
		"description":           model.Description,
		"status":                model.Status,
		"assigned_technician":   model.AssignedTechnician,
		"notes":                 model.Notes,
		"failure_reason":        model.FailureReason,
		"priority":              model.Priority,
		"updated_at":            model.UpdatedAt,
		"started_at":            model.StartedAt,
		"completed_at":          model.CompletedAt,
		"version":               gorm.Expr("version + 1"),
	}

	result := r.db.WithContext(ctx).
		Model(&executionTaskModel{}).
		Where("id = ? AND version = ?", id, task.Version).
		Updates(values)
	if result.Error != nil {
		r.log.Errorw("execution_task_repo_update_failed", "id", id, "error", result.Error)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, domain.NewError(domain.ErrConflict,
				fmt.Sprintf("Execution task already exists for service order: %d", task.ServiceOrderID),
				result.Error,
				map[string]any{"task_id": id, "service_order_id": task.ServiceOrderID},
			)
		}
		return nil, domain.WrapTransport(result.Error, "failed to update execution task", map[string]any{"task_id": id})
	}

	if result.RowsAffected == 0 {
		return nil, r.missedUpdate(ctx, id, task.Version)
	}

	saved, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, notFound(id)
	}

	r.log.Infow("execution_task_repo_update_ok", "id", id, "status", saved.Status, "version", saved.Version)
	return saved, nil
}

func (r *executionTaskRepository) missedUpdate(ctx context.Context, id int64, version int) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&executionTaskModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return domain.WrapTransport(err, "failed to check execution task", map[string]any{"task_id": id})
	}
	if count == 0 {
		return notFound(id)
	}
	r.log.Warnw("execution_task_repo_update_stale", "id", id, "version", version)
	return domain.NewError(domain.ErrStaleWrite,
		fmt.Sprintf("Execution task %d was modified concurrently", id),
		nil,
		map[string]any{"task_id": id, "version": version},
	)
}

func (r *executionTaskRepository) FindByID(ctx context.Context, id int64) (*domain.ExecutionTask, error) {
	var model executionTaskModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorw("execution_task_repo_get_failed", "id", id, "error", err)
		return nil, domain.WrapTransport(err, "failed to load execution task", map[string]any{"task_id": id})
	}
	return model.toDomain(), nil
}

// FindByServiceOrderID returns the newest task for the order. Older rows can
// only be FAILED ones that were superseded by a re-creation.
func (r *executionTaskRepository) FindByServiceOrderID(ctx context.Context, serviceOrderID int64) (*domain.ExecutionTask, error) {
	var model executionTaskModel
	err := r.db.WithContext(ctx).
		Where("service_order_id = ?", serviceOrderID).
		Order("id DESC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorw("execution_task_repo_get_by_service_order_failed", "service_order_id", serviceOrderID, "error", err)
		return nil, domain.WrapTransport(err, "failed to load execution task", map[string]any{"service_order_id": serviceOrderID})
	}
	return model.toDomain(), nil
}

func (r *executionTaskRepository) FindAll(ctx context.Context, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&executionTaskModel{}), req)
}

func (r *executionTaskRepository) FindByStatus(ctx context.Context, status domain.ExecutionStatus, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	query := r.db.WithContext(ctx).Model(&executionTaskModel{}).Where("status = ?", string(status))
	return r.page(ctx, query, req)
}

func (r *executionTaskRepository) page(ctx context.Context, query *gorm.DB, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	req = req.Normalize()
	page := domain.EmptyPage[domain.ExecutionTask](req)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		r.log.Errorw("execution_task_repo_count_failed", "error", err)
		return page, domain.WrapTransport(err, "failed to count execution tasks", nil)
	}
	page.TotalElements = total
	if total == 0 || int64(req.Offset()) >= total {
		return page, nil
	}

	var models []executionTaskModel
	if err := query.Session(&gorm.Session{}).
		Order("id ASC").
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&models).Error; err != nil {
		r.log.Errorw("execution_task_repo_list_failed", "page", req.Page, "size", req.Size, "error", err)
		return page, domain.WrapTransport(err, "failed to list execution tasks", nil)
	}

	for i := range models {
		page.Content = append(page.Content, *models[i].toDomain())
	}
	return page, nil
}

func notFound(id int64) error {
	return domain.NewError(domain.ErrNotFound,
		fmt.Sprintf("Execution task not found with id: %d", id),
		nil,
		map[string]any{"task_id": id},
	)
}
