package dto

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
)

type CreateExecutionTaskRequest struct {
	ServiceOrderID      *int64 `json:"serviceOrderId"`
	CustomerID          *int64 `json:"customerId,omitempty"`
	VehicleID           *int64 `json:"vehicleId,omitempty"`
	VehicleLicensePlate string `json:"vehicleLicensePlate,omitempty"`
	Description         string `json:"description,omitempty"`
	AssignedTechnician  string `json:"assignedTechnician,omitempty"`
	Priority            *int   `json:"priority,omitempty"`
}

func (r *CreateExecutionTaskRequest) Validate() []string {
	var errors []string

	if r.ServiceOrderID == nil {
		errors = append(errors, "serviceOrderId is required")
	} else if *r.ServiceOrderID <= 0 {
		errors = append(errors, "serviceOrderId must be positive")
	}

	if utf8.RuneCountInString(r.VehicleLicensePlate) > domain.MaxLicensePlateLength {
		errors = append(errors, fmt.Sprintf("vehicleLicensePlate must be at most %d characters", domain.MaxLicensePlateLength))
	}

	if utf8.RuneCountInString(r.Description) > domain.MaxDescriptionLength {
		errors = append(errors, fmt.Sprintf("description must be at most %d characters", domain.MaxDescriptionLength))
	}

	if utf8.RuneCountInString(r.AssignedTechnician) > domain.MaxAssignedTechnicianLength {
		errors = append(errors, fmt.Sprintf("assignedTechnician must be at most %d characters", domain.MaxAssignedTechnicianLength))
	}

	if r.Priority != nil && *r.Priority < 0 {
		errors = append(errors, "priority must not be negative")
	}

	return errors
}

func (r *CreateExecutionTaskRequest) ToInput() ports.CreateExecutionTaskInput {
	input := ports.CreateExecutionTaskInput{
		CustomerID:          r.CustomerID,
		VehicleID:           r.VehicleID,
		VehicleLicensePlate: strings.TrimSpace(r.VehicleLicensePlate),
		Description:         strings.TrimSpace(r.Description),
		AssignedTechnician:  strings.TrimSpace(r.AssignedTechnician),
		Priority:            r.Priority,
	}
	if r.ServiceOrderID != nil {
		input.ServiceOrderID = *r.ServiceOrderID
	}
	return input
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
