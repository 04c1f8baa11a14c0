// Package domain contains core concepts of the chat relay.
// This file defines Connection snapshots and the session state machine states.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// ConnectionID identifies one live transport connection.
type ConnectionID string

// RoomID is a case-sensitive room name. Rooms exist implicitly once joined.
type RoomID string

type SessionState int

const (
	StateConnected SessionState = iota
	StateInRoom
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateInRoom:
		return "IN_ROOM"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Connection is a point-in-time copy of a registered connection.
// The registry owns the live entry; callers only ever see copies.
type Connection struct {
	ID          ConnectionID
	Username    string
	Room        RoomID
	ConnectedAt time.Time
}

func (c Connection) InRoom() bool {
	return c.Room != ""
}
