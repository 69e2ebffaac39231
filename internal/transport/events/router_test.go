package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failCall struct {
	serviceOrderID int64
	reason         string
}

type stubUseCases struct {
	created   []ports.CreateExecutionTaskInput
	failed    []failCall
	createErr error
	failErr   error
}

func (s *stubUseCases) Create(_ context.Context, input ports.CreateExecutionTaskInput) (*domain.ExecutionTask, error) {
	s.created = append(s.created, input)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.ExecutionTask{ID: 1, ServiceOrderID: input.ServiceOrderID, Status: domain.StatusQueued}, nil
}

func (s *stubUseCases) FailByID(context.Context, int64, string) (*domain.ExecutionTask, error) {
	return nil, errors.New("not used")
}

func (s *stubUseCases) FailByServiceOrderID(_ context.Context, serviceOrderID int64, reason string) (*domain.ExecutionTask, error) {
	s.failed = append(s.failed, failCall{serviceOrderID: serviceOrderID, reason: reason})
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &domain.ExecutionTask{ID: 1, ServiceOrderID: serviceOrderID, Status: domain.StatusFailed}, nil
}

func newTestRouter(stub *stubUseCases) *Router {
	return NewRouter(RouterConfig{Creator: stub, Failer: stub})
}

func TestRouter_PaymentProcessedCreatesTask(t *testing.T) {
	stub := &stubUseCases{}
	err := newTestRouter(stub).Route(context.Background(),
		[]byte(`{"eventType":"PaymentProcessed","serviceOrderId":100,"customerId":200,"vehicleId":300}`))
	require.NoError(t, err)

	require.Len(t, stub.created, 1)
	input := stub.created[0]
	assert.Equal(t, int64(100), input.ServiceOrderID)
	require.NotNil(t, input.CustomerID)
	assert.Equal(t, int64(200), *input.CustomerID)
	require.NotNil(t, input.VehicleID)
	assert.Equal(t, int64(300), *input.VehicleID)
	require.NotNil(t, input.Priority)
	assert.Equal(t, 0, *input.Priority)
	assert.Equal(t, "Execution for service order 100", input.Description)
	assert.Empty(t, stub.failed)
}

func TestRouter_PaymentProcessedAcceptsStringKeysAndFallback(t *testing.T) {
	stub := &stubUseCases{}
	err := newTestRouter(stub).Route(context.Background(),
		[]byte(`{"eventType":"PaymentProcessed","serviceOrderId":null,"orderId":"42","vehicleLicensePlate":"XYZ9A87"}`))
	require.NoError(t, err)

	require.Len(t, stub.created, 1)
	assert.Equal(t, int64(42), stub.created[0].ServiceOrderID)
	assert.Nil(t, stub.created[0].CustomerID)
	assert.Equal(t, "XYZ9A87", stub.created[0].VehicleLicensePlate)
}

func TestRouter_CreateConflictIsRedelivered(t *testing.T) {
	stub := &stubUseCases{createErr: domain.NewError(domain.ErrConflict, "exists", nil, nil)}
	err := newTestRouter(stub).Route(context.Background(), []byte(`{"eventType":"PaymentProcessed","serviceOrderId":1}`))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestRouter_CompensationReasons(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		reason  string
	}{
		{"payment failed with reason", `{"eventType":"PaymentFailed","serviceOrderId":5,"failureReason":"Card declined"}`, "Card declined"},
		{"payment failed default", `{"eventType":"PaymentFailed","orderId":5}`, DefaultPaymentFailedReason},
		{"payment refunded", `{"eventType":"PaymentRefunded","serviceOrderId":5,"refundReason":"Customer request"}`, "Customer request"},
		{"payment refunded default", `{"eventType":"PaymentRefunded","serviceOrderId":5,"refundReason":"  "}`, DefaultPaymentRefundedReason},
		{"order cancelled", `{"eventType":"ORDER_CANCELLED","serviceOrderId":5}`, DefaultOrderCancelledReason},
		{"service order cancelled", `{"eventType":"ServiceOrderCancelled","serviceOrderId":5,"cancellationReason":"Duplicate"}`, "Duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubUseCases{}
			require.NoError(t, newTestRouter(stub).Route(context.Background(), []byte(tc.payload)))
			assert.Equal(t, []failCall{{serviceOrderID: 5, reason: tc.reason}}, stub.failed)
			assert.Empty(t, stub.created)
		})
	}
}

func TestRouter_SwallowsNothingToCompensate(t *testing.T) {
	for _, base := range []error{
		domain.NewError(domain.ErrNotFound, "Execution task not found for service order: 9", nil, nil),
		domain.NewError(domain.ErrIllegalTransition, "Cannot fail execution task in status: COMPLETED", nil, nil),
	} {
		stub := &stubUseCases{failErr: base}
		err := newTestRouter(stub).Route(context.Background(), []byte(`{"eventType":"PaymentFailed","serviceOrderId":9}`))
		assert.NoError(t, err)
		assert.Len(t, stub.failed, 1)
	}
}

func TestRouter_CompensationTransportFailurePropagates(t *testing.T) {
	stub := &stubUseCases{failErr: domain.NewError(domain.ErrTransportFailure, "db down", nil, nil)}
	err := newTestRouter(stub).Route(context.Background(), []byte(`{"eventType":"ORDER_CANCELLED","serviceOrderId":9}`))
	require.Error(t, err)
	assert.True(t, domain.IsTransportFailure(err))
}

func TestRouter_MalformedPayloads(t *testing.T) {
	payloads := []string{
		`not json`,
		`[1,2]`,
		`{"eventType":"PaymentFailed"}`,
		`{"eventType":"PaymentProcessed","serviceOrderId":"abc"}`,
		`{"eventType":"PaymentProcessed","serviceOrderId":12.5}`,
		`{"eventType":"ServiceOrderCancelled","serviceOrderId":null}`,
	}
	for _, payload := range payloads {
		stub := &stubUseCases{}
		err := newTestRouter(stub).Route(context.Background(), []byte(payload))
		require.Error(t, err, payload)
		assert.True(t, domain.IsMalformedEvent(err), payload)
		assert.Empty(t, stub.created)
		assert.Empty(t, stub.failed)
	}
}

func TestRouter_UnreadableOptionalReferencesAreDropped(t *testing.T) {
	stub := &stubUseCases{}
	err := newTestRouter(stub).Route(context.Background(),
		[]byte(`{"eventType":"PaymentProcessed","serviceOrderId":5,"customerId":"x","vehicleId":{"id":3}}`))
	require.NoError(t, err)

	require.Len(t, stub.created, 1)
	assert.Equal(t, int64(5), stub.created[0].ServiceOrderID)
	assert.Nil(t, stub.created[0].CustomerID)
	assert.Nil(t, stub.created[0].VehicleID)
}

func TestDecode_PaymentProcessedReportsIgnoredFields(t *testing.T) {
	event, err := Decode([]byte(`{"eventType":"PaymentProcessed","serviceOrderId":5,"customerId":"x","vehicleId":"12"}`))
	require.NoError(t, err)
	processed, ok := event.(PaymentProcessed)
	require.True(t, ok)
	assert.Equal(t, []string{"customerId"}, processed.IgnoredFields)
	require.NotNil(t, processed.VehicleID)
	assert.Equal(t, int64(12), *processed.VehicleID)
}

func TestDecode_LongLicensePlateIsTruncated(t *testing.T) {
	plate := strings.Repeat("Ç", domain.MaxLicensePlateLength+40)
	event, err := Decode([]byte(`{"eventType":"PaymentProcessed","serviceOrderId":5,"vehicleLicensePlate":"` + plate + `"}`))
	require.NoError(t, err)
	processed := event.(PaymentProcessed)
	assert.Equal(t, domain.MaxLicensePlateLength, utf8.RuneCountInString(processed.VehicleLicensePlate))
}

func TestRouter_IgnoresUnknownEvents(t *testing.T) {
	for _, payload := range []string{
		`{"eventType":"PaymentPending","serviceOrderId":1}`,
		`{"eventType":"paymentprocessed","serviceOrderId":1}`,
		`{"serviceOrderId":1}`,
		`{"eventType":"InvoiceIssued"}`,
	} {
		stub := &stubUseCases{}
		require.NoError(t, newTestRouter(stub).Route(context.Background(), []byte(payload)), payload)
		assert.Empty(t, stub.created)
		assert.Empty(t, stub.failed)
	}
}

func TestDecode_Variants(t *testing.T) {
	event, err := Decode([]byte(`{"eventType":"ServiceOrderCancelled","orderId":3}`))
	require.NoError(t, err)
	cancelled, ok := event.(OrderCancelled)
	require.True(t, ok)
	assert.Equal(t, TypeServiceOrderCancelled, cancelled.Type())
	assert.Equal(t, int64(3), cancelled.ServiceOrderID)

	event, err = Decode([]byte(`{"eventType":"Other"}`))
	require.NoError(t, err)
	assert.Equal(t, Unrecognized{EventType: "Other"}, event)
}
