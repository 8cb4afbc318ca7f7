package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribersOnly(t *testing.T) {
	hub := NewHub()

	june, cleanupJune := hub.Subscribe("2024-06")
	defer cleanupJune()
	july, cleanupJuly := hub.Subscribe("2024-07")
	defer cleanupJuly()

	assert.Equal(t, 1, hub.SubscriberCount("2024-06"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	hub.Publish("2024-06", Event{Event: "employee_result", Data: "E001"})

	select {
	case ev := <-june:
		assert.Equal(t, "2024-06", ev.Topic)
		assert.Equal(t, "employee_result", ev.Event)
		assert.Equal(t, "E001", ev.Data)
	default:
		t.Fatal("expected an event for 2024-06")
	}

	select {
	case ev := <-july:
		t.Fatalf("unexpected event on 2024-07: %+v", ev)
	default:
	}
}

func TestHub_CleanupClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("2024-06")

	cleanup()
	cleanup()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount("2024-06"))
	assert.Equal(t, 0, hub.TotalSubscribers())

	// Publishing to a topic without subscribers is a no-op.
	hub.Publish("2024-06", Event{Event: "batch_finished"})
}

func TestHub_FullSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	hub.buffer = 1
	ch, cleanup := hub.Subscribe("2024-06")
	defer cleanup()

	hub.Publish("2024-06", Event{Event: "first"})
	hub.Publish("2024-06", Event{Event: "second"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Event)
}
