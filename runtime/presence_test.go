package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/projection"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestPresence_Broadcast_Full_View_To_Everyone(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	presence := NewPresence(logs.GetLoggerFromLevel(slog.LevelDebug), registry)
	alice, unnamed := newConnectionID(), newConnectionID()
	aliceTimeline, unnamedTimeline := projection.NewTimeline(), projection.NewTimeline()

	// Given one named and one anonymous connection
	registry.Register(alice, aliceTimeline)
	registry.SetUsername(alice, "alice")
	registry.Register(unnamed, unnamedTimeline)

	// When presence is broadcast
	presence.Broadcast(context.Background())

	// Then both receive the same full view
	expected := domain.OnlineUserView{alice: "alice", unnamed: ""}
	for _, timeline := range []*projection.Timeline{aliceTimeline, unnamedTimeline} {
		lists := timeline.EventsOf(event.UserListType)
		req.Len(lists, 1)
		req.Equal(expected, lists[0].(event.UserList).Users)
	}
}

func TestPresence_Snapshot_Of_Empty_Registry(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry())

	req.Empty(presence.Snapshot())
	presence.Broadcast(context.Background())
}

func TestPresence_Full_Sink_Does_Not_Stop_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	presence := NewPresence(logs.GetLoggerFromLevel(slog.LevelDebug), registry)
	healthy := projection.NewTimeline()

	registry.Register(newConnectionID(), failingSink{})
	registry.Register(newConnectionID(), healthy)

	presence.Broadcast(context.Background())

	req.Len(healthy.EventsOf(event.UserListType), 1)
}
