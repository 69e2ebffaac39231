package ports

import (
	"context"

	"github.com/cargarage/execution-service/internal/domain"
)

// ExecutionTaskRepository is the store gateway. Lookups return (nil, nil)
// when no record matches.
type ExecutionTaskRepository interface {
	Insert(ctx context.Context, task *domain.ExecutionTask) (*domain.ExecutionTask, error)
	Update(ctx context.Context, id int64, task *domain.ExecutionTask) (*domain.ExecutionTask, error)
	FindByID(ctx context.Context, id int64) (*domain.ExecutionTask, error)
	FindByServiceOrderID(ctx context.Context, serviceOrderID int64) (*domain.ExecutionTask, error)
	FindAll(ctx context.Context, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error)
	FindByStatus(ctx context.Context, status domain.ExecutionStatus, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error)
}
