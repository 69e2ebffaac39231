package db

import (
	"time"

	"github.com/cargarage/execution-service/internal/domain"
)

type executionTaskModel struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement"`
	ServiceOrderID      int64      `gorm:"not null;index:idx_execution_task_service_order"`
	CustomerID          *int64
	VehicleID           *int64
	VehicleLicensePlate string     `gorm:"size:255"`
	Description         string     `gorm:"size:500;not null"`
	Status              string     `gorm:"size:20;not null;index:idx_execution_task_status"`
	AssignedTechnician  string     `gorm:"size:255"`
	Notes               string     `gorm:"type:text"`
	FailureReason       string     `gorm:"type:text"`
	Priority            int        `gorm:"not null"`
	Version             int        `gorm:"not null"`
	CreatedAt           time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt           time.Time  `gorm:"not null;autoUpdateTime:false"`
	StartedAt           *time.Time
	CompletedAt         *time.Time
}

func (executionTaskModel) TableName() string {
	return "execution_task"
}

func modelFromDomain(task *domain.ExecutionTask) *executionTaskModel {
	return &executionTaskModel{
		ID:                  task.ID,
		ServiceOrderID:      task.ServiceOrderID,
		CustomerID:          task.CustomerID,
		VehicleID:           task.VehicleID,
		VehicleLicensePlate: task.VehicleLicensePlate,
		Description:         task.Description,
		Status:              string(task.Status),
		AssignedTechnician:  task.AssignedTechnician,
		Notes:               task.Notes,
		FailureReason:       task.FailureReason,
		Priority:            task.Priority,
		Version:             task.Version,
		CreatedAt:           task.CreatedAt.UTC(),
		UpdatedAt:           task.UpdatedAt.UTC(),
		StartedAt:           utcPtr(task.StartedAt),
		CompletedAt:         utcPtr(task.CompletedAt),
	}
}

func (m *executionTaskModel) toDomain() *domain.ExecutionTask {
	return &domain.ExecutionTask{
		ID:                  m.ID,
		ServiceOrderID:      m.ServiceOrderID,
		CustomerID:          m.CustomerID,
		VehicleID:           m.VehicleID,
		VehicleLicensePlate: m.VehicleLicensePlate,
		Description:         m.Description,
		Status:              domain.ExecutionStatus(m.Status),
		AssignedTechnician:  m.AssignedTechnician,
		Notes:               m.Notes,
		FailureReason:       m.FailureReason,
		Priority:            m.Priority,
		Version:             m.Version,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
		StartedAt:           utcPtr(m.StartedAt),
		CompletedAt:         utcPtr(m.CompletedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
