package repositories

import (
	"chat-relay/domain/search"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *SearchIndex {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestSearchIndex_Finds_Messages_Of_A_Room_Newest_First(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Given messages spread over two rooms
	messages := []DiskMessage{
		diskMessage("ops", "alice", "deploy started", at),
		diskMessage("ops", "bob", "coffee break", at.Add(time.Minute)),
		diskMessage("ops", "alice", "deploy finished", at.Add(2*time.Minute)),
		diskMessage("dev", "clara", "deploy on staging", at.Add(3*time.Minute)),
	}
	for _, m := range messages {
		req.NoError(index.Index(m))
	}

	// When searching for a term in one room
	hits, err := index.Search(context.Background(), search.NewSearchQuery("deploy --room ops"))

	// Then only that room matches, newest first
	req.NoError(err)
	req.Equal([]string{"deploy finished", "deploy started"}, lo.Map(hits, func(h SearchHit, _ int) string { return h.Content }))
	req.Equal(messages[2].ID.String(), hits[0].ID)
	req.Equal(messages[2].At, hits[0].At)
	req.Equal("alice", hits[0].Author)
}

func TestSearchIndex_Author_Filter_And_Limit(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := range 5 {
		req.NoError(index.Index(diskMessage("general", "alice", "hello", at.Add(time.Duration(i)*time.Second))))
	}
	req.NoError(index.Index(diskMessage("general", "bob", "hello", at.Add(time.Hour))))

	hits, err := index.Search(context.Background(), search.NewSearchQuery("hello --author alice --limit 3"))

	req.NoError(err)
	req.Len(hits, 3)
	for _, hit := range hits {
		req.Equal("alice", hit.Author)
	}
}

func TestSearchIndex_Reindexing_Replaces_Document(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)
	message := diskMessage("general", "alice", "first version", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	req.NoError(index.Index(message))

	message.Content = "second version"
	req.NoError(index.Index(message))

	hits, err := index.Search(context.Background(), search.Query{Room: "general"})
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("second version", hits[0].Content)
}
