package service

import (
	"sync"
	"sync/atomic"
)

// EventBus fans marker change events out to subscribers such as the
// editor's SSE stream. Publishing never blocks: a subscriber whose buffer
// is full misses the event and the drop is counted.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped atomic.Int64
}

// Subscription is a live registration on an EventBus.
type Subscription struct {
	C    <-chan Event
	ch   chan Event
	bus  *EventBus
	once sync.Once
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[*Subscription]struct{})}
}

// Publish delivers e to every subscriber with room in its buffer.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber with a 16-event buffer.
func (b *EventBus) Subscribe() *Subscription {
	ch := make(chan Event, 16)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Subscribers returns the number of live subscriptions.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}
