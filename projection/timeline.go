// Package projection builds a local view of what one connection observed.
// It records events in arrival order and never emits anything.
package projection

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"sync"
)

var _ contract.EventSink = (*Timeline)(nil)

// Timeline holds a simple local timeline
type Timeline struct {
	mu       sync.Mutex
	Owner    string
	events   []event.DomainEvent
	messages []domain.ChatMessage
	users    domain.OnlineUserView
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, e)
	switch evt := e.(type) {
	case event.ChatMessage:
		t.messages = append(t.messages, fromEvent(evt))
	case event.UserList:
		t.users = evt.Users
	}
	return nil
}

// Events returns a copy of every event received so far.
func (t *Timeline) Events() []event.DomainEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]event.DomainEvent(nil), t.events...)
}

// EventsOf keeps only the events of the given type.
func (t *Timeline) EventsOf(eventType event.Type) []event.DomainEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range t.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (t *Timeline) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ChatMessage(nil), t.messages...)
}

// Users is the last presence view received, nil before the first one.
func (t *Timeline) Users() domain.OnlineUserView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.users
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func fromEvent(evt event.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:       evt.ID,
		Username: evt.Username,
		Room:     evt.Room,
		Content:  evt.Content,
		At:       evt.At,
	}
}
