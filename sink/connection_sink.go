package sink

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"
)

var _ contract.EventSink = (*ConnectionSink)(nil)

// ConnectionSink buffers the outbound events of one connection until the
// transport writer picks them up. Consume never blocks: when the buffer is
// full the event is dropped for this connection only.
type ConnectionSink struct {
	mu     sync.RWMutex
	closed bool
	events chan event.DomainEvent
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the router and the presence tracker.
// Redirect the event through the concerned owner of the channel,
// the transport writer will take it from now.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSinkFull
	}
}

// Events is closed by Close once the connection is gone.
func (s *ConnectionSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close is idempotent. Consume after Close reports ErrSessionClosed.
func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
