package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
	"time"

	"github.com/samber/lo"
)

var _ contract.IConnectionRegistry = (*Registry)(nil)

type session struct {
	connection domain.Connection
	sink       contract.EventSink
}

// Registry owns every live connection and the sink its events are pushed to.
// Other components only keep connection ids.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnectionID]*session // map connection -> attributes + Sink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnectionID]*session),
	}
}

// Register adds a connection with no username and no room.
// Registering an id twice replaces the previous entry.
func (r *Registry) Register(id domain.ConnectionID, sink contract.EventSink) domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := domain.Connection{ID: id, ConnectedAt: time.Now().UTC()}
	r.sessions[id] = &session{connection: conn, sink: sink}
	return conn
}

// SetUsername does not enforce uniqueness: two connections may share a display name.
func (r *Registry) SetUsername(id domain.ConnectionID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.connection.Username = username
	return true
}

func (r *Registry) SetRoom(id domain.ConnectionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.connection.Room = room
	return true
}

// Unregister is a no-op for unknown ids: transport disconnects race with in-flight events.
func (r *Registry) Unregister(id domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Get(id domain.ConnectionID) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, false
	}
	return s.connection, true
}

func (r *Registry) All() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.sessions, func(_ domain.ConnectionID, s *session) domain.Connection {
		return s.connection
	})
}

// Sinks resolves connection ids into their sinks, silently skipping ids
// that are no longer registered.
func (r *Registry) Sinks(ids ...domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.sessions, func(_ domain.ConnectionID, s *session) contract.EventSink {
		return s.sink
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
