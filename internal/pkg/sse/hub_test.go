package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribersOnly(t *testing.T) {
	hub := NewHub(1)

	a, cleanupA := hub.Subscribe("company-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("company-b")
	defer cleanupB()

	hub.Publish("company-a", Event{Event: "activity", Data: "run"})

	select {
	case ev := <-a:
		assert.Equal(t, "company-a", ev.Topic)
		assert.Equal(t, "activity", ev.Event)
		assert.Equal(t, "run", ev.Data)
	default:
		t.Fatal("expected event for company-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for company-b: %+v", ev)
	default:
	}
}

func TestHub_FullBufferDropsEvent(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("company-a")
	defer cleanup()

	hub.Publish("company-a", Event{Event: "first"})
	hub.Publish("company-a", Event{Event: "second"})

	ev := <-ch
	assert.Equal(t, "first", ev.Event)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestHub_CleanupClosesChannel(t *testing.T) {
	hub := NewHub(0)
	ch, cleanup := hub.Subscribe("company-a")
	require.Equal(t, 1, hub.SubscriberCount("company-a"))

	cleanup()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.SubscriberCount("company-a"))
}
