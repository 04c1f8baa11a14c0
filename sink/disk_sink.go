package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

var _ contract.MessageSink = DiskSink{}

// DiskSink writes chat messages to the badger history store,
// tagged with the detected language of their content.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Append(ctx context.Context, message domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.repository.StoreMessage(toDiskMessage(message))
}

func toDiskMessage(message domain.ChatMessage) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:      message.ID,
		Room:    string(message.Room),
		Author:  message.Username,
		Content: message.Content,
		At:      message.At,
		Lang:    detectLanguage(message.Content),
	}
}

// detectLanguage returns an ISO 639-1 code, or "" when detection is not reliable.
func detectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
