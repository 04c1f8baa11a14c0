// Package domain contains core concepts of the chat relay.
// This file defines ChatMessage events and related rules.
// Messages are immutable once accepted by the router.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents an immutable chat event.
type ChatMessage struct {
	ID       uuid.UUID // unique identifier
	Username string
	Room     RoomID
	Content  string
	At       time.Time // acceptance time, not persistence time
}

func NewChatMessage(username string, room RoomID, content string, at time.Time) ChatMessage {
	return ChatMessage{
		ID:       uuid.New(),
		Username: username,
		Room:     room,
		Content:  content,
		At:       at,
	}
}
