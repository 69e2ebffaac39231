package domain

import "time"

// Widths of the bounded text columns.
const (
	MaxLicensePlateLength       = 255
	MaxDescriptionLength        = 500
	MaxAssignedTechnicianLength = 255
)

// ExecutionTask is one service order accepted for execution in the workshop.
// Instances are treated as immutable snapshots: every state change returns a
// new value and leaves the receiver untouched.
type ExecutionTask struct {
	ID                  int64           `json:"id"`
	ServiceOrderID      int64           `json:"serviceOrderId"`
	CustomerID          *int64          `json:"customerId,omitempty"`
	VehicleID           *int64          `json:"vehicleId,omitempty"`
	VehicleLicensePlate string          `json:"vehicleLicensePlate,omitempty"`
	Description         string          `json:"description,omitempty"`
	Status              ExecutionStatus `json:"status"`
	AssignedTechnician  string          `json:"assignedTechnician,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	FailureReason       string          `json:"failureReason,omitempty"`
	Priority            int             `json:"priority"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	StartedAt           *time.Time      `json:"startedAt,omitempty"`
	CompletedAt         *time.Time      `json:"completedAt,omitempty"`
}

// NewExecutionTaskParams holds the fields accepted when queueing a task.
type NewExecutionTaskParams struct {
	ServiceOrderID      int64
	CustomerID          *int64
	VehicleID           *int64
	VehicleLicensePlate string
	Description         string
	AssignedTechnician  string
	Priority            *int
}

// NewExecutionTask builds a QUEUED task that has not been persisted yet.
func NewExecutionTask(params NewExecutionTaskParams, now time.Time) (*ExecutionTask, error) {
	if params.ServiceOrderID == 0 {
		return nil, NewError(ErrInvalidArgument, "Invalid ExecutionTask: serviceOrderId must not be null", nil, nil)
	}

	priority := 0
	if params.Priority != nil {
		priority = *params.Priority
	}

	return &ExecutionTask{
		ServiceOrderID:      params.ServiceOrderID,
		CustomerID:          params.CustomerID,
		VehicleID:           params.VehicleID,
		VehicleLicensePlate: params.VehicleLicensePlate,
		Description:         params.Description,
		Status:              StatusQueued,
		AssignedTechnician:  params.AssignedTechnician,
		Priority:            priority,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Validate checks the invariants a persisted record must hold.
func (t *ExecutionTask) Validate() error {
	if t.ServiceOrderID == 0 {
		return NewError(ErrInvalidArgument, "Invalid ExecutionTask: serviceOrderId must not be null", nil, nil)
	}
	if !t.Status.IsValid() {
		return NewError(ErrInvalidStatus, "Invalid execution status: "+string(t.Status), nil,
			map[string]any{"task_id": t.ID})
	}
	return nil
}

func (t *ExecutionTask) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// WithStatus returns a copy moved to next. startedAt and completedAt are only
// assigned the first time their state is reached.
func (t *ExecutionTask) WithStatus(next ExecutionStatus, now time.Time) *ExecutionTask {
	updated := t.clone()
	updated.Status = next
	updated.UpdatedAt = now

	if next == StatusInProgress && updated.StartedAt == nil {
		updated.StartedAt = timePtr(now)
	}
	if next.IsTerminal() && updated.CompletedAt == nil {
		updated.CompletedAt = timePtr(now)
	}
	return updated
}

// WithFailure returns a FAILED copy carrying reason.
func (t *ExecutionTask) WithFailure(reason string, now time.Time) *ExecutionTask {
	updated := t.WithStatus(StatusFailed, now)
	updated.FailureReason = reason
	return updated
}

func (t *ExecutionTask) clone() *ExecutionTask {
	cp := *t
	cp.CustomerID = int64PtrCopy(t.CustomerID)
	cp.VehicleID = int64PtrCopy(t.VehicleID)
	if t.StartedAt != nil {
		cp.StartedAt = timePtr(*t.StartedAt)
	}
	if t.CompletedAt != nil {
		cp.CompletedAt = timePtr(*t.CompletedAt)
	}
	return &cp
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func int64PtrCopy(v *int64) *int64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
