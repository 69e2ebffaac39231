package messaging

import (
	"testing"

	"github.com/cargarage/execution-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewEventHub()
	slow, cleanupSlow := hub.Subscribe()
	defer cleanupSlow()
	fast, cleanupFast := hub.Subscribe()
	defer cleanupFast()

	for i := 0; i < subscriberBuffer; i++ {
		hub.Broadcast(domain.ExecutionEvent{EventType: domain.EventExecutionStarted})
		<-fast
	}
	assert.Len(t, slow, subscriberBuffer)
	assert.Equal(t, 2, hub.Subscribers())

	hub.Broadcast(domain.ExecutionEvent{EventType: domain.EventExecutionCompleted})
	assert.Equal(t, 1, hub.Subscribers())

	received := 0
	for range slow {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)

	event, ok := <-fast
	require.True(t, ok)
	assert.Equal(t, domain.EventExecutionCompleted, event.EventType)
}

func TestEventHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewEventHub()
	_, cleanup := hub.Subscribe()

	cleanup()
	cleanup()
	assert.Zero(t, hub.Subscribers())
	hub.Broadcast(domain.ExecutionEvent{})
}

func TestEventHub_NilHubDiscards(t *testing.T) {
	var hub *EventHub
	assert.NotPanics(t, func() {
		hub.Broadcast(domain.ExecutionEvent{EventType: domain.EventExecutionFailed})
	})
	assert.Zero(t, hub.Subscribers())
}
