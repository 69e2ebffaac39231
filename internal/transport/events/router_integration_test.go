package events

import (
	"context"
	"testing"
	"time"

	"github.com/cargarage/execution-service/internal/config"
	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/core/services"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{ failed int }

func (p *nopPublisher) PublishExecutionStarted(context.Context, *domain.ExecutionTask) error {
	return nil
}

func (p *nopPublisher) PublishExecutionCompleted(context.Context, *domain.ExecutionTask) error {
	return nil
}

func (p *nopPublisher) PublishExecutionFailed(context.Context, *domain.ExecutionTask) error {
	p.failed++
	return nil
}

type sagaFixture struct {
	router    *Router
	repo      ports.ExecutionTaskRepository
	publisher *nopPublisher
	updater   ports.ExecutionTaskStatusUpdater
}

func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()
	database, err := db.NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database))

	repo := db.NewExecutionTaskRepository(database, nil)
	publisher := &nopPublisher{}
	cfg := services.ExecutionTaskServiceConfig{Repository: repo, Publisher: publisher}
	return &sagaFixture{
		router: NewRouter(RouterConfig{
			Creator: services.NewCreateExecutionTaskUseCase(cfg),
			Failer:  services.NewFailExecutionTaskUseCase(cfg),
		}),
		repo:      repo,
		publisher: publisher,
		updater:   services.NewUpdateExecutionTaskStatusUseCase(cfg),
	}
}

func (f *sagaFixture) route(t *testing.T, payload string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.router.Route(ctx, []byte(payload))
}

func TestSaga_CancellationBeforePaymentIsTolerated(t *testing.T) {
	f := newSagaFixture(t)

	require.NoError(t, f.route(t, `{"eventType":"ORDER_CANCELLED","serviceOrderId":100}`))
	require.NoError(t, f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":100,"customerId":200,"vehicleId":300}`))

	task, err := f.repo.FindByServiceOrderID(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusQueued, task.Status)
	assert.Equal(t, "Execution for service order 100", task.Description)
	assert.Zero(t, f.publisher.failed)
}

func TestSaga_RefundCompensatesThenPaymentRequeues(t *testing.T) {
	f := newSagaFixture(t)

	require.NoError(t, f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":"55"}`))
	require.NoError(t, f.route(t, `{"eventType":"PaymentRefunded","orderId":55,"refundReason":"Chargeback"}`))

	failed, err := f.repo.FindByServiceOrderID(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, "Chargeback", failed.FailureReason)
	assert.Equal(t, 1, f.publisher.failed)

	// a second compensation for the same order finds nothing active
	require.NoError(t, f.route(t, `{"eventType":"PaymentFailed","serviceOrderId":55}`))
	assert.Equal(t, 1, f.publisher.failed)

	require.NoError(t, f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":55}`))
	requeued, err := f.repo.FindByServiceOrderID(context.Background(), 55)
	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, requeued.ID)
	assert.Equal(t, domain.StatusQueued, requeued.Status)
}

func TestSaga_DuplicatePaymentIsRejected(t *testing.T) {
	f := newSagaFixture(t)

	require.NoError(t, f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":9}`))
	err := f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":9}`)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestSaga_CompletedTaskIgnoresLateCancellation(t *testing.T) {
	f := newSagaFixture(t)
	require.NoError(t, f.route(t, `{"eventType":"PaymentProcessed","serviceOrderId":3}`))

	task, err := f.repo.FindByServiceOrderID(context.Background(), 3)
	require.NoError(t, err)
	_, err = f.updater.UpdateStatus(context.Background(), task.ID, "IN_PROGRESS")
	require.NoError(t, err)
	_, err = f.updater.UpdateStatus(context.Background(), task.ID, "COMPLETED")
	require.NoError(t, err)

	require.NoError(t, f.route(t, `{"eventType":"ServiceOrderCancelled","serviceOrderId":3}`))

	after, err := f.repo.FindByServiceOrderID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, after.Status)
	assert.Empty(t, after.FailureReason)
}
