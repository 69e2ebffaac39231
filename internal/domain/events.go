package domain

import "time"

// ExecutionEventType names an outbound notification.
type ExecutionEventType string

const (
	EventExecutionStarted   ExecutionEventType = "ExecutionStarted"
	EventExecutionCompleted ExecutionEventType = "ExecutionCompleted"
	EventExecutionFailed    ExecutionEventType = "ExecutionFailed"
)

// EventTypeForStatus maps a reached status to the notification it triggers.
// QUEUED emits nothing.
func EventTypeForStatus(status ExecutionStatus) (ExecutionEventType, bool) {
	switch status {
	case StatusInProgress:
		return EventExecutionStarted, true
	case StatusCompleted:
		return EventExecutionCompleted, true
	case StatusFailed:
		return EventExecutionFailed, true
	default:
		return "", false
	}
}

// ExecutionEvent is the durable notification describing a transition. It is
// never persisted.
type ExecutionEvent struct {
	EventID             string             `json:"eventId"`
	EventType           ExecutionEventType `json:"eventType"`
	ExecutionTaskID     int64              `json:"executionTaskId"`
	ServiceOrderID      int64              `json:"serviceOrderId"`
	CustomerID          *int64             `json:"customerId"`
	VehicleID           *int64             `json:"vehicleId"`
	VehicleLicensePlate *string            `json:"vehicleLicensePlate"`
	Status              ExecutionStatus    `json:"status"`
	FailureReason       *string            `json:"failureReason"`
	Timestamp           time.Time          `json:"timestamp"`
}

// NewExecutionEvent snapshots task at emission time.
func NewExecutionEvent(eventID string, eventType ExecutionEventType, task *ExecutionTask, at time.Time) ExecutionEvent {
	return ExecutionEvent{
		EventID:             eventID,
		EventType:           eventType,
		ExecutionTaskID:     task.ID,
		ServiceOrderID:      task.ServiceOrderID,
		CustomerID:          int64PtrCopy(task.CustomerID),
		VehicleID:           int64PtrCopy(task.VehicleID),
		VehicleLicensePlate: optionalString(task.VehicleLicensePlate),
		Status:              task.Status,
		FailureReason:       optionalString(task.FailureReason),
		Timestamp:           at,
	}
}

// OrderNotification is the narrow payload consumed by the service-order
// service for completed and failed executions.
type OrderNotification struct {
	OrderID int64  `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
