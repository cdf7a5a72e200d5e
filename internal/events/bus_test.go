package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/core"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(ev core.Event) { got = append(got, "first:"+ev.EventName()) })
	bus.Subscribe(func(ev core.Event) { got = append(got, "second:"+ev.EventName()) })

	bus.Publish(core.JobDispatched{})

	assert.Equal(t, []string{"first:job-dispatched", "second:job-dispatched"}, got)
}

func TestOnFiltersByType(t *testing.T) {
	bus := NewBus()
	var cancelled []core.Job

	On(bus, func(ev core.CredentialsCancelled) { cancelled = append(cancelled, ev.Job) })

	bus.Publish(core.JobQueued{Job: core.Job{ID: "a"}})
	bus.Publish(core.CredentialsCancelled{Job: core.Job{ID: "b"}})

	require.Len(t, cancelled, 1)
	assert.Equal(t, "b", cancelled[0].ID)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(core.Event) { calls++ })

	bus.Publish(core.JobDispatched{})
	unsubscribe()
	unsubscribe()
	bus.Publish(core.JobDispatched{})

	assert.Equal(t, 1, calls)
}

func TestSubscriberMayPublish(t *testing.T) {
	bus := NewBus()
	var names []string
	bus.Subscribe(func(ev core.Event) {
		names = append(names, ev.EventName())
		if _, ok := ev.(core.JobDispatched); ok {
			bus.Publish(core.JobCompleted{})
		}
	})

	bus.Publish(core.JobDispatched{})
	assert.Equal(t, []string{"job-dispatched", "job-completed"}, names)
}

func TestStream(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Stream(ctx, 1)
	bus.Publish(core.JobDispatched{})
	bus.Publish(core.JobCompleted{}) // dropped, buffer full

	select {
	case ev := <-ch:
		assert.Equal(t, "job-dispatched", ev.EventName())
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
