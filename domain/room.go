package domain

// OnlineUserView maps every live connection to its display name.
// Connections that have not joined a room yet map to an empty name.
type OnlineUserView map[ConnectionID]string

// Invitation is routed once to its target and never stored.
type Invitation struct {
	From   string
	Target ConnectionID
	Room   RoomID
}

// Stats is a cheap summary of the relay state used by monitoring.
type Stats struct {
	Connections int
	Rooms       int
}
