package ports

import (
	"context"
	"time"

	"github.com/cargarage/execution-service/internal/domain"
)

type CreateExecutionTaskInput struct {
	ServiceOrderID      int64
	CustomerID          *int64
	VehicleID           *int64
	VehicleLicensePlate string
	Description         string
	AssignedTechnician  string
	Priority            *int
}

type ExecutionTaskCreator interface {
	Create(ctx context.Context, input CreateExecutionTaskInput) (*domain.ExecutionTask, error)
}

type ExecutionTaskStatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.ExecutionTask, error)
}

// ExecutionTaskFailer applies the saga compensation to a still active task.
type ExecutionTaskFailer interface {
	FailByID(ctx context.Context, id int64, reason string) (*domain.ExecutionTask, error)
	FailByServiceOrderID(ctx context.Context, serviceOrderID int64, reason string) (*domain.ExecutionTask, error)
}

type ExecutionTaskFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.ExecutionTask, error)
	FindByServiceOrderID(ctx context.Context, serviceOrderID int64) (*domain.ExecutionTask, error)
	FindAll(ctx context.Context, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error)
	FindByStatus(ctx context.Context, status string, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error)
}

// Clock is the single source of "now" for use cases and publishers.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
