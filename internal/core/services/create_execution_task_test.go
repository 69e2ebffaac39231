package services

import (
	"context"
	"testing"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_QueuesNewTask(t *testing.T) {
	h := newHarness()
	uc := NewCreateExecutionTaskUseCase(h.cfg)

	task, err := uc.Create(context.Background(), ports.CreateExecutionTaskInput{
		ServiceOrderID: 100,
		Description:    "Execution for service order 100",
	})
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, domain.StatusQueued, task.Status)
	assert.Equal(t, 0, task.Priority)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
	assert.Empty(t, h.publisher.calls, "creation is not announced")
	assert.Equal(t, 1, h.metrics.created)
}

func TestCreate_RejectsMissingServiceOrder(t *testing.T) {
	h := newHarness()
	uc := NewCreateExecutionTaskUseCase(h.cfg)

	_, err := uc.Create(context.Background(), ports.CreateExecutionTaskInput{Description: "x"})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidArgument(err))
}

func TestCreate_ConflictsWithActiveTask(t *testing.T) {
	for _, status := range []domain.ExecutionStatus{domain.StatusQueued, domain.StatusInProgress, domain.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness()
			h.seedStatus(100, status)
			uc := NewCreateExecutionTaskUseCase(h.cfg)

			_, err := uc.Create(context.Background(), ports.CreateExecutionTaskInput{ServiceOrderID: 100})
			require.Error(t, err)
			assert.True(t, domain.IsConflict(err))
			assert.Equal(t, "Execution task already exists for service order: 100", domain.ErrorMessage(err))
			assert.Zero(t, h.metrics.created)
		})
	}
}

func TestCreate_AllowsRequeueAfterFailure(t *testing.T) {
	h := newHarness()
	failed := h.seedStatus(100, domain.StatusFailed)
	uc := NewCreateExecutionTaskUseCase(h.cfg)

	task, err := uc.Create(context.Background(), ports.CreateExecutionTaskInput{ServiceOrderID: 100})
	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, task.ID)
	assert.Equal(t, domain.StatusQueued, task.Status)
}

func TestCreate_PropagatesLookupFailure(t *testing.T) {
	h := newHarness()
	h.repo.findErr = domain.NewError(domain.ErrTransportFailure, "db down", nil, nil)
	uc := NewCreateExecutionTaskUseCase(h.cfg)

	_, err := uc.Create(context.Background(), ports.CreateExecutionTaskInput{ServiceOrderID: 1})
	require.Error(t, err)
	assert.True(t, domain.IsTransportFailure(err))
}
