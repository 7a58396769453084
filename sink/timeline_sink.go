// Package sink provides alternative event consumers. A websocket client is
// the usual sink; these serve tooling and tests.
package sink

import (
	"context"
	"sync"

	"chatwire/domain"
	"chatwire/domain/event"
)

// Timeline accumulates the messages a connection would have rendered. Tests
// and the inspect tooling use it in place of a live socket.
type Timeline struct {
	Owner string

	mu       sync.Mutex
	messages []domain.Message
	events   []event.DomainEvent
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{Owner: owner}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, e)
	if posted, ok := e.(event.MessagePosted); ok {
		t.messages = append(t.messages, posted.Message)
	}
	return nil
}

// Messages returns the rendered timeline in arrival order.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Events returns everything consumed, whatever the event type.
func (t *Timeline) Events() []event.DomainEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]event.DomainEvent, len(t.events))
	copy(out, t.events)
	return out
}

// EventsNamed filters the consumed events by name.
func (t *Timeline) EventsNamed(name string) []event.DomainEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range t.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}
