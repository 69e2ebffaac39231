package events

import (
	"context"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

const (
	outcomeCreated     = "created"
	outcomeCompensated = "compensated"
	outcomeSkipped     = "skipped"
	outcomeIgnored     = "ignored"
	outcomeMalformed   = "malformed"
	outcomeError       = "error"
)

type RouterConfig struct {
	Creator ports.ExecutionTaskCreator
	Failer  ports.ExecutionTaskFailer
	Metrics ports.ExecutionMetrics
	Logger  *logger.Logger
}

// Router turns inbound saga events into use case calls. A returned error
// means the message must be redelivered.
type Router struct {
	creator ports.ExecutionTaskCreator
	failer  ports.ExecutionTaskFailer
	metrics ports.ExecutionMetrics
	log     *logger.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Metrics == nil {
		cfg.Metrics = ports.NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Router{
		creator: cfg.Creator,
		failer:  cfg.Failer,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
	}
}

func (r *Router) Route(ctx context.Context, payload []byte) error {
	event, err := Decode(payload)
	if err != nil {
		r.metrics.EventReceived("unknown", outcomeMalformed)
		r.log.Errorw("inbound_event_malformed", "error", err)
		return err
	}

	switch e := event.(type) {
	case PaymentProcessed:
		return r.onPaymentProcessed(ctx, e)
	case PaymentFailed:
		return r.compensate(ctx, e.Type(), e.ServiceOrderID, e.Reason)
	case PaymentRefunded:
		return r.compensate(ctx, e.Type(), e.ServiceOrderID, e.Reason)
	case OrderCancelled:
		return r.compensate(ctx, e.Type(), e.ServiceOrderID, e.Reason)
	default:
		r.metrics.EventReceived(eventTypeLabel(event.Type()), outcomeIgnored)
		r.log.Infow("inbound_event_ignored", "event_type", event.Type())
		return nil
	}
}

func (r *Router) onPaymentProcessed(ctx context.Context, e PaymentProcessed) error {
	if len(e.IgnoredFields) > 0 {
		r.log.Warnw("inbound_event_fields_ignored", "event_type", e.Type(), "service_order_id", e.ServiceOrderID, "fields", e.IgnoredFields)
	}
	priority := 0
	task, err := r.creator.Create(ctx, ports.CreateExecutionTaskInput{
		ServiceOrderID:      e.ServiceOrderID,
		CustomerID:          e.CustomerID,
		VehicleID:           e.VehicleID,
		VehicleLicensePlate: e.VehicleLicensePlate,
		Description:         e.Description(),
		Priority:            &priority,
	})
	if err != nil {
		r.metrics.EventReceived(e.Type(), outcomeError)
		r.log.Errorw("inbound_event_create_failed", "event_type", e.Type(), "service_order_id", e.ServiceOrderID, "error", err)
		return err
	}

	r.metrics.EventReceived(e.Type(), outcomeCreated)
	r.log.Infow("inbound_event_task_created", "event_type", e.Type(), "service_order_id", e.ServiceOrderID, "task_id", task.ID)
	return nil
}

// compensate fails the active task for the order. A missing or already
// finished task leaves nothing to compensate and is not an error.
func (r *Router) compensate(ctx context.Context, eventType string, serviceOrderID int64, reason string) error {
	task, err := r.failer.FailByServiceOrderID(ctx, serviceOrderID, reason)
	switch {
	case err == nil:
		r.metrics.EventReceived(eventType, outcomeCompensated)
		r.log.Infow("inbound_event_task_failed", "event_type", eventType, "service_order_id", serviceOrderID, "task_id", task.ID, "reason", reason)
		return nil
	case domain.IsNotFound(err), domain.IsIllegalTransition(err):
		r.metrics.EventReceived(eventType, outcomeSkipped)
		r.log.Warnw("inbound_event_nothing_to_compensate", "event_type", eventType, "service_order_id", serviceOrderID, "reason", domain.ErrorMessage(err))
		return nil
	default:
		r.metrics.EventReceived(eventType, outcomeError)
		r.log.Errorw("inbound_event_compensation_failed", "event_type", eventType, "service_order_id", serviceOrderID, "error", err)
		return err
	}
}

func eventTypeLabel(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	// keep label cardinality bounded
	return "unrecognized"
}
