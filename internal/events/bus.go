// Package events provides the typed event channel shared by the coordinator,
// the operation handlers and the front ends.
package events

import (
	"context"
	"sync"

	"github.com/sevigo/shiny-updates/internal/core"
)

// Bus delivers events synchronously to every subscriber in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(core.Event)
	order  []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(core.Event))}
}

// Publish hands ev to all current subscribers. Subscribers may publish or
// (un)subscribe from within their callback.
func (b *Bus) Publish(ev core.Event) {
	b.mu.RLock()
	handlers := make([]func(core.Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(core.Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// On subscribes fn to events of the concrete type T only.
func On[T core.Event](b *Bus, fn func(T)) func() {
	return b.Subscribe(func(ev core.Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
	})
}

// Stream returns a channel receiving every event until ctx is done. Events are
// dropped when the buffer is full so a slow reader never stalls publishers.
func (b *Bus) Stream(ctx context.Context, buffer int) <-chan core.Event {
	ch := make(chan core.Event, buffer)
	var mu sync.Mutex
	closed := false

	unsubscribe := b.Subscribe(func(ev core.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
