package session

import (
	"sync"
	"time"
)

// EventKind identifies the type of session event.
type EventKind string

const (
	EventStateChanged EventKind = "state_changed"
	EventToolsListed  EventKind = "tools_listed"
	EventAnswerReady  EventKind = "answer_ready"
)

// Event is an immutable notification of session activity.
type Event struct {
	Kind      EventKind
	SessionID string
	State     State
	Timestamp time.Time
	Data      any
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus fans out events to all active subscribers. It is safe for
// concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus ready for use.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe creates a subscription with the given channel buffer size. The
// caller reads from sub.C and eventually calls Unsubscribe.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends e to every subscriber. A subscriber with a full buffer misses
// the event; Publish never blocks the session.
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
