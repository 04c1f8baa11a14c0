package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func diskMessage(room, author, content string, at time.Time) DiskMessage {
	return DiskMessage{ID: uuid.New(), Room: room, Author: author, Content: content, At: at}
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), nil)
	room := "general"
	content := "this message will self destruct in 5 seconds"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	diskMessages := []DiskMessage{
		diskMessage(room, "Alice", content, at),
		diskMessage(room, "Bob", content, at.Add(1*time.Minute)),
		diskMessage(room, "Clara", content, at.Add(2*time.Minute)),
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	// When fetching the room history
	fetchedMessages, cursor, err := repository.GetMessages(room, nil)

	// Then messages come back newest first
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]DiskMessage{diskMessages[2], diskMessages[1], diskMessages[0]}, fetchedMessages)
}

func Test_Record_Multiple_Message_And_Limit(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), &limit)
	room := "general"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	diskMessages := []DiskMessage{
		diskMessage(room, "Alice", "one", at),
		diskMessage(room, "Bob", "two", at.Add(1*time.Minute)),
		diskMessage(room, "Clara", "three", at.Add(2*time.Minute)),
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	// When fetching the first page
	firstPage, cursor, err := repository.GetMessages(room, nil)
	req.NoError(err)
	req.Len(firstPage, limit)
	req.Equal("three", firstPage[0].Content)
	req.Equal("two", firstPage[1].Content)

	// Then the cursor continues with older messages
	secondPage, next, err := repository.GetMessages(room, cursor)
	req.NoError(err)
	req.Len(secondPage, 1)
	req.Equal("one", secondPage[0].Content)
	req.NotNil(next)

	// And nothing is left after that
	lastPage, end, err := repository.GetMessages(room, next)
	req.NoError(err)
	req.Empty(lastPage)
	req.Nil(end)
}

func Test_Rooms_Sharing_A_Prefix_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), nil)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Given two rooms where one name prefixes the other
	req.NoError(repository.StoreMessage(diskMessage("dev", "Alice", "in dev", at)))
	req.NoError(repository.StoreMessage(diskMessage("dev:ops", "Bob", "in dev:ops", at)))

	// When reading the shorter one
	messages, _, err := repository.GetMessages("dev", nil)

	// Then the other room does not leak in
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("in dev", messages[0].Content)
}

func Test_Unknown_Room_Returns_Nothing(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), nil)

	messages, cursor, err := repository.GetMessages("nowhere", nil)

	req.NoError(err)
	req.Empty(messages)
	req.Nil(cursor)
}

func Test_Codec_Keeps_Language_And_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	message := diskMessage("general", "Alice", "bonjour à tous", time.Date(2026, 3, 1, 10, 0, 0, 42, time.UTC))
	message.Lang = "fr"

	// Given a record written by a newer version with an extra field
	raw := marshalMessage(message)
	raw = appendString(raw, 15, "future")

	// When decoding it
	decoded, err := unmarshalMessage(raw)

	// Then known fields survive
	req.NoError(err)
	req.Equal(message, decoded)
}

func Test_Codec_Rejects_Truncated_Record(t *testing.T) {
	req := require.New(t)
	raw := marshalMessage(diskMessage("general", "Alice", "hello", time.Now()))

	_, err := unmarshalMessage(raw[:len(raw)-3])

	req.Error(err)
}
