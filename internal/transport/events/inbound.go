package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cargarage/execution-service/internal/domain"
)

const (
	TypePaymentProcessed      = "PaymentProcessed"
	TypePaymentFailed         = "PaymentFailed"
	TypePaymentRefunded       = "PaymentRefunded"
	TypeOrderCancelled        = "ORDER_CANCELLED"
	TypeServiceOrderCancelled = "ServiceOrderCancelled"
)

const (
	DefaultPaymentFailedReason   = "Payment failed"
	DefaultPaymentRefundedReason = "Payment refunded"
	DefaultOrderCancelledReason  = "Order cancelled"
)

// InboundEvent is one of PaymentProcessed, PaymentFailed, PaymentRefunded,
// OrderCancelled or Unrecognized.
type InboundEvent interface {
	Type() string
}

// IgnoredFields lists optional references that were present but unreadable
// and were dropped instead of rejecting the event.
type PaymentProcessed struct {
	ServiceOrderID      int64
	CustomerID          *int64
	VehicleID           *int64
	VehicleLicensePlate string
	IgnoredFields       []string
}

func (PaymentProcessed) Type() string { return TypePaymentProcessed }

// Description is the generated text stored on the created task.
func (e PaymentProcessed) Description() string {
	return fmt.Sprintf("Execution for service order %d", e.ServiceOrderID)
}

type PaymentFailed struct {
	ServiceOrderID int64
	Reason         string
}

func (PaymentFailed) Type() string { return TypePaymentFailed }

type PaymentRefunded struct {
	ServiceOrderID int64
	Reason         string
}

func (PaymentRefunded) Type() string { return TypePaymentRefunded }

// OrderCancelled covers both cancellation spellings; EventType keeps the one
// that was received.
type OrderCancelled struct {
	EventType      string
	ServiceOrderID int64
	Reason         string
}

func (e OrderCancelled) Type() string { return e.EventType }

type Unrecognized struct {
	EventType string
}

func (e Unrecognized) Type() string { return e.EventType }

// Decode parses a raw message into its event variant. Unknown or missing
// event types decode to Unrecognized without looking at the rest of the
// payload.
func Decode(payload []byte) (InboundEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, malformed("event payload is not a JSON object", err, "")
	}

	eventType := stringField(fields, "eventType")

	switch eventType {
	case TypePaymentProcessed:
		key, err := correlationKey(fields, eventType)
		if err != nil {
			return nil, err
		}
		event := PaymentProcessed{
			ServiceOrderID:      key,
			VehicleLicensePlate: truncate(strings.TrimSpace(stringField(fields, "vehicleLicensePlate")), domain.MaxLicensePlateLength),
		}
		var ok bool
		if event.CustomerID, ok = optionalInt64(fields, "customerId"); !ok {
			event.IgnoredFields = append(event.IgnoredFields, "customerId")
		}
		if event.VehicleID, ok = optionalInt64(fields, "vehicleId"); !ok {
			event.IgnoredFields = append(event.IgnoredFields, "vehicleId")
		}
		return event, nil

	case TypePaymentFailed:
		key, err := correlationKey(fields, eventType)
		if err != nil {
			return nil, err
		}
		return PaymentFailed{
			ServiceOrderID: key,
			Reason:         reasonField(fields, "failureReason", DefaultPaymentFailedReason),
		}, nil

	case TypePaymentRefunded:
		key, err := correlationKey(fields, eventType)
		if err != nil {
			return nil, err
		}
		return PaymentRefunded{
			ServiceOrderID: key,
			Reason:         reasonField(fields, "refundReason", DefaultPaymentRefundedReason),
		}, nil

	case TypeOrderCancelled, TypeServiceOrderCancelled:
		key, err := correlationKey(fields, eventType)
		if err != nil {
			return nil, err
		}
		return OrderCancelled{
			EventType:      eventType,
			ServiceOrderID: key,
			Reason:         reasonField(fields, "cancellationReason", DefaultOrderCancelledReason),
		}, nil

	default:
		return Unrecognized{EventType: eventType}, nil
	}
}

// correlationKey reads serviceOrderId, falling back to orderId. A null value
// counts as absent.
func correlationKey(fields map[string]json.RawMessage, eventType string) (int64, error) {
	for _, name := range []string{"serviceOrderId", "orderId"} {
		raw, ok := present(fields, name)
		if !ok {
			continue
		}
		key, err := parseInt64(raw)
		if err != nil || key <= 0 {
			return 0, malformed(fmt.Sprintf("invalid %s in event", name), err, eventType)
		}
		return key, nil
	}
	return 0, malformed("serviceOrderId or orderId not found in event", nil, eventType)
}

// optionalInt64 reports false when the field is present but not an integer.
func optionalInt64(fields map[string]json.RawMessage, name string) (*int64, bool) {
	raw, ok := present(fields, name)
	if !ok {
		return nil, true
	}
	v, err := parseInt64(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func reasonField(fields map[string]json.RawMessage, name, fallback string) string {
	if reason := strings.TrimSpace(stringField(fields, name)); reason != "" {
		return reason
	}
	return fallback
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := present(fields, name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func present(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// parseInt64 accepts a JSON integer or a string holding one.
func parseInt64(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not an integer: %s", string(raw))
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func malformed(message string, source error, eventType string) error {
	var metadata map[string]any
	if eventType != "" {
		metadata = map[string]any{"event_type": eventType}
	}
	return domain.NewError(domain.ErrMalformedEvent, message, source, metadata)
}
