package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Consume_ChatMessage(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	evt1 := event.ChatMessage{
		Username: "Alice",
		Room:     "r1",
		Content:  "Hello Bob",
		At:       time.Now(),
	}
	evt2 := event.ChatMessage{
		Username: "Clara",
		Room:     "r1",
		Content:  "Hi Bob",
		At:       time.Now().Add(time.Second),
	}

	req.NoError(timeline.Consume(ctx, evt1))
	req.NoError(timeline.Consume(ctx, event.Typing{Text: "Clara is typing..."}))
	req.NoError(timeline.Consume(ctx, evt2))

	messages := timeline.Messages()
	req.Len(messages, 2)
	req.Equal("Alice", messages[0].Username)
	req.Equal("Clara", messages[1].Username)
	req.Equal(3, timeline.Len())
	req.Len(timeline.EventsOf(event.TypingType), 1)
}

func TestTimeline_Keeps_Last_User_List(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	// Given no presence view was received
	req.Nil(timeline.Users())

	// When two views arrive
	req.NoError(timeline.Consume(ctx, event.UserList{Users: domain.OnlineUserView{"a": "alice"}}))
	req.NoError(timeline.Consume(ctx, event.UserList{Users: domain.OnlineUserView{"a": "alice", "b": "bob"}}))

	// Then only the latest is kept as current view
	req.Len(timeline.Users(), 2)
	req.Len(timeline.EventsOf(event.UserListType), 2)
}
