package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
)

var _ contract.MessageSink = IndexSink{}

type Indexer interface {
	Index(message repositories.DiskMessage) error
}

// IndexSink feeds the full-text history index.
type IndexSink struct {
	indexer Indexer
}

func NewIndexSink(indexer Indexer) IndexSink {
	return IndexSink{indexer: indexer}
}

func (s IndexSink) Append(ctx context.Context, message domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.indexer.Index(toDiskMessage(message))
}
