//go:generate go run go.uber.org/mock/mockgen -source=sink.go -destination=../mocks/mock_sink.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
)

// EventSink receives the outbound events of one connection.
// Consume must never block the caller for long: the router fans out
// to every room member from a single goroutine.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// MessageSink is the write-behind persistence collaborator.
type MessageSink interface {
	Append(ctx context.Context, message domain.ChatMessage) error
}

// ContentFilter rewrites chat content before it is broadcast and stored.
// The second return value lists the matched words.
type ContentFilter interface {
	Censor(content string) (string, []string)
}
