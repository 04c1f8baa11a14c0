// Package event defines the outbound events delivered to connections.
package event

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	UserListType    Type = "userList"
	WelcomeType     Type = "welcome"
	ChatMessageType Type = "chatMessage"
	TypingType      Type = "typing"
	StopTypingType  Type = "stopTyping"
	RoomInviteType  Type = "roomInvite"
)

type DomainEvent interface {
	EventType() Type
}

// UserList always carries the full presence view, never a diff.
type UserList struct {
	Users domain.OnlineUserView
}

func (UserList) EventType() Type { return UserListType }

type Welcome struct {
	Text string
}

func (Welcome) EventType() Type { return WelcomeType }

type ChatMessage struct {
	ID       uuid.UUID
	Room     domain.RoomID
	Username string
	Content  string
	At       time.Time
}

func (ChatMessage) EventType() Type { return ChatMessageType }

type Typing struct {
	Text string
}

func (Typing) EventType() Type { return TypingType }

type StopTyping struct{}

func (StopTyping) EventType() Type { return StopTypingType }

type RoomInvite struct {
	Room domain.RoomID
	From string
}

func (RoomInvite) EventType() Type { return RoomInviteType }

func FromChatMessage(m domain.ChatMessage) ChatMessage {
	return ChatMessage{
		ID:       m.ID,
		Room:     m.Room,
		Username: m.Username,
		Content:  m.Content,
		At:       m.At,
	}
}
