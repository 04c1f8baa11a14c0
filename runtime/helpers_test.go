package runtime

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
)

// failingSink behaves like a connection whose buffer is always full.
type failingSink struct{}

func (failingSink) Consume(context.Context, event.DomainEvent) error {
	return errors.ErrSinkFull
}
