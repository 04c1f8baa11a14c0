package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"context"
)

type IConnectionRegistry interface {
	Register(id domain.ConnectionID, sink EventSink) domain.Connection
	SetUsername(id domain.ConnectionID, username string) bool
	SetRoom(id domain.ConnectionID, room domain.RoomID) bool
	Unregister(id domain.ConnectionID) bool
	Get(id domain.ConnectionID) (domain.Connection, bool)
	All() []domain.Connection
	Sinks(ids ...domain.ConnectionID) []EventSink
	AllSinks() []EventSink
	Len() int
}

type IRoomDirectory interface {
	Join(room domain.RoomID, id domain.ConnectionID)
	Leave(room domain.RoomID, id domain.ConnectionID)
	MembersOf(room domain.RoomID) []domain.ConnectionID
	Len() int
}

type IPresenceTracker interface {
	Snapshot() domain.OnlineUserView
	Broadcast(ctx context.Context)
}

type IRouter interface {
	EnterRoom(ctx context.Context, id domain.ConnectionID, room domain.RoomID) error
	Welcome(ctx context.Context, id domain.ConnectionID, room domain.RoomID, text string)
	LeaveRoom(id domain.ConnectionID) error
	RouteChat(ctx context.Context, id domain.ConnectionID, content string) error
	RouteTyping(ctx context.Context, id domain.ConnectionID, active bool) error
	RouteInvite(ctx context.Context, from, target domain.ConnectionID, room domain.RoomID) error
	AcceptInvite(ctx context.Context, id domain.ConnectionID, room domain.RoomID) error
}

// ISession is the per-connection state machine as seen by a transport.
type ISession interface {
	ID() domain.ConnectionID
	Dispatch(ctx context.Context, cmd chat.Command) error
	Run(ctx context.Context) error
	Done() <-chan struct{}
}

type IRelay interface {
	Connect(sink EventSink) ISession
	Stats() domain.Stats
}

// RelayMetrics counts routing activity. Implementations must be safe for
// concurrent use and must never block.
type RelayMetrics interface {
	IncrMessagesRouted()
	IncrEventsDelivered()
	IncrEventsDropped()
	IncrInvitesUndeliverable()
}
