package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
)

var _ contract.IPresenceTracker = (*Presence)(nil)

// Presence derives the online user view from the registry and pushes it to everyone.
type Presence struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry contract.IConnectionRegistry
}

func NewPresence(log *slog.Logger, registry contract.IConnectionRegistry) *Presence {
	return &Presence{log: log, registry: registry}
}

func (p *Presence) Snapshot() domain.OnlineUserView {
	connections := p.registry.All()
	view := make(domain.OnlineUserView, len(connections))
	for _, c := range connections {
		view[c.ID] = c.Username
	}
	return view
}

// Broadcast sends the full view to every registered connection.
// Snapshot and enqueue happen under one lock so that every sink observes
// presence views in the order they were taken.
func (p *Presence) Broadcast(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := p.Snapshot()
	evt := event.UserList{Users: view}
	for _, sink := range p.registry.AllSinks() {
		if err := sink.Consume(ctx, evt); err != nil {
			p.log.Debug("User list not delivered", "error", err)
		}
	}
}
