package domain

import (
	"fmt"
	"strings"
)

// ExecutionStatus is the lifecycle state of an execution task.
// Workflow: QUEUED -> IN_PROGRESS -> COMPLETED. FAILED is reachable from
// QUEUED or IN_PROGRESS as a saga compensation.
type ExecutionStatus string

const (
	StatusQueued     ExecutionStatus = "QUEUED"
	StatusInProgress ExecutionStatus = "IN_PROGRESS"
	StatusCompleted  ExecutionStatus = "COMPLETED"
	StatusFailed     ExecutionStatus = "FAILED"
)

var transitions = map[ExecutionStatus][]ExecutionStatus{
	StatusQueued:     {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed},
	StatusCompleted:  nil,
	StatusFailed:     nil,
}

// AllStatuses lists every known status in workflow order.
func AllStatuses() []ExecutionStatus {
	return []ExecutionStatus{StatusQueued, StatusInProgress, StatusCompleted, StatusFailed}
}

// ParseExecutionStatus is case-insensitive and ignores surrounding whitespace.
func ParseExecutionStatus(raw string) (ExecutionStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return "", NewError(ErrInvalidArgument, "status must not be null or blank", nil, nil)
	}
	status := ExecutionStatus(normalized)
	if !status.IsValid() {
		return "", NewError(ErrInvalidStatus, fmt.Sprintf("Invalid execution status: %s", raw), nil,
			map[string]any{"status": raw})
	}
	return status, nil
}

func (s ExecutionStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether target is reachable in one step. Unknown
// or empty targets are never reachable.
func (s ExecutionStatus) CanTransitionTo(target ExecutionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s ExecutionStatus) String() string {
	return string(s)
}
