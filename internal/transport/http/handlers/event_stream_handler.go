package handlers

import (
	"strconv"

	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/gofiber/contrib/websocket"
)

// EventSubscriber hands out live execution events.
type EventSubscriber interface {
	Subscribe() (<-chan domain.ExecutionEvent, func())
}

type EventStreamHandler struct {
	hub    EventSubscriber
	logger *logger.Logger
}

func NewEventStreamHandler(hub EventSubscriber, logger *logger.Logger) *EventStreamHandler {
	return &EventStreamHandler{hub: hub, logger: logger}
}

// Stream writes every published execution event to the socket as JSON. The
// optional serviceOrderId query parameter narrows the stream to one order.
func (h *EventStreamHandler) Stream(c *websocket.Conn) {
	var onlyOrder int64
	if raw := c.Query("serviceOrderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			_ = c.WriteJSON(map[string]string{"error": "invalid serviceOrderId"})
			return
		}
		onlyOrder = id
	}

	events, cleanup := h.hub.Subscribe()
	defer cleanup()
	h.logger.Infow("event_stream_connected", "remote", c.RemoteAddr().String(), "service_order_id", onlyOrder)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Infow("event_stream_disconnected", "remote", c.RemoteAddr().String())
			return
		case event, ok := <-events:
			if !ok {
				h.logger.Warnw("event_stream_dropped", "remote", c.RemoteAddr().String())
				return
			}
			if onlyOrder != 0 && event.ServiceOrderID != onlyOrder {
				continue
			}
			if err := c.WriteJSON(event); err != nil {
				h.logger.Warnw("event_stream_write_failed", "error", err)
				return
			}
		}
	}
}
