package sink

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDiskSink_Stores_Message_With_Language(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIMessageRepository(ctrl)
	sink := NewDiskSink(repository, logs.GetLoggerFromLevel(slog.LevelDebug))
	message := domain.NewChatMessage("alice", "general",
		"Bonjour à tous, je suis très content de vous retrouver aujourd'hui dans ce salon",
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	repository.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m repositories.DiskMessage) error {
		req.Equal(message.ID, m.ID)
		req.Equal("general", m.Room)
		req.Equal("alice", m.Author)
		req.Equal(message.Content, m.Content)
		req.Equal(message.At, m.At)
		req.Equal(detectLanguage(message.Content), m.Lang)
		return nil
	})

	req.NoError(sink.Append(context.Background(), message))
}

func TestDiskSink_Canceled_Context_Skips_Storage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sink := NewDiskSink(mocks.NewMockIMessageRepository(ctrl), logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Append(ctx, domain.NewChatMessage("alice", "general", "late", time.Now()))

	req.ErrorIs(err, context.Canceled)
}

type recordingIndexer struct {
	indexed []repositories.DiskMessage
}

func (r *recordingIndexer) Index(message repositories.DiskMessage) error {
	r.indexed = append(r.indexed, message)
	return nil
}

func TestIndexSink_Indexes_Disk_Representation(t *testing.T) {
	req := require.New(t)
	indexer := &recordingIndexer{}
	message := domain.NewChatMessage("bob", "ops", "deploy done", time.Now().UTC())

	req.NoError(NewIndexSink(indexer).Append(context.Background(), message))

	req.Len(indexer.indexed, 1)
	req.Equal(message.ID, indexer.indexed[0].ID)
	req.Equal("ops", indexer.indexed[0].Room)
	req.Equal("bob", indexer.indexed[0].Author)
}
