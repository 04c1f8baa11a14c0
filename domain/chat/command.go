// Package chat defines the inbound commands a connection can send to the relay.
// One command type per protocol event; the session state machine consumes them.
package chat

import "chat-relay/domain"

type Command interface {
	ConnectionID() domain.ConnectionID
}

type JoinRoomCommand struct {
	Connection domain.ConnectionID
	Username   string
	Room       domain.RoomID
}

func (c JoinRoomCommand) ConnectionID() domain.ConnectionID { return c.Connection }

type PostMessageCommand struct {
	Connection domain.ConnectionID
	Content    string
}

func (c PostMessageCommand) ConnectionID() domain.ConnectionID { return c.Connection }

// TypingCommand carries both typing and stopTyping, Active tells them apart.
type TypingCommand struct {
	Connection domain.ConnectionID
	Active     bool
}

func (c TypingCommand) ConnectionID() domain.ConnectionID { return c.Connection }

type InviteCommand struct {
	Connection domain.ConnectionID
	Target     domain.ConnectionID
	Room       domain.RoomID
}

func (c InviteCommand) ConnectionID() domain.ConnectionID { return c.Connection }

type AcceptInviteCommand struct {
	Connection domain.ConnectionID
	Room       domain.RoomID
}

func (c AcceptInviteCommand) ConnectionID() domain.ConnectionID { return c.Connection }

// DisconnectCommand is produced by the transport, never by clients.
type DisconnectCommand struct {
	Connection domain.ConnectionID
}

func (c DisconnectCommand) ConnectionID() domain.ConnectionID { return c.Connection }
