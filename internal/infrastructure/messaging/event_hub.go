package messaging

import (
	"sync"

	"github.com/cargarage/execution-service/internal/domain"
)

const subscriberBuffer = 64

// EventHub fans published execution events out to live subscribers. Sends
// never block; a subscriber whose buffer is full is dropped and its channel
// closed. A nil hub discards everything.
type EventHub struct {
	mu          sync.Mutex
	subscribers map[chan domain.ExecutionEvent]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[chan domain.ExecutionEvent]struct{})}
}

func (h *EventHub) Broadcast(event domain.ExecutionEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.removeLocked(ch)
		}
	}
}

// Subscribe registers a listener. The returned cleanup closes the channel
// unless the hub already dropped it.
func (h *EventHub) Subscribe() (<-chan domain.ExecutionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.ExecutionEvent, subscriberBuffer)
	h.subscribers[ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.removeLocked(ch)
	}
	return ch, cleanup
}

func (h *EventHub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *EventHub) removeLocked(ch chan domain.ExecutionEvent) {
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}
