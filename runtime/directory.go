package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRoomDirectory = (*Directory)(nil)

type Set map[domain.ConnectionID]struct{}

// Directory maps rooms to their members. A room is created on first join
// and its entry is dropped once the last member leaves, so an unknown room
// and an empty room look the same to callers.
type Directory struct {
	mu          sync.RWMutex
	roomMembers map[domain.RoomID]Set // map room to connections
}

func NewDirectory() *Directory {
	return &Directory{
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// Join is idempotent.
func (d *Directory) Join(room domain.RoomID, id domain.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.roomMembers[room]; !ok {
		d.roomMembers[room] = make(Set)
	}
	d.roomMembers[room][id] = struct{}{}
}

// Leave is a no-op when the connection is not a member.
func (d *Directory) Leave(room domain.RoomID, id domain.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.roomMembers[room]
	if !ok {
		return
	}
	delete(members, id)

	// If no one is left in the room, remove the room entry entirely
	if len(members) == 0 {
		delete(d.roomMembers, room)
	}
}

// MembersOf returns a copy of the membership, taken under the read lock.
// Mutations after the call never affect the returned slice.
func (d *Directory) MembersOf(room domain.RoomID) []domain.ConnectionID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members, ok := d.roomMembers[room]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

// Len returns the number of non-empty rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.roomMembers)
}
