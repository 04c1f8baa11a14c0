package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var _ contract.IRouter = (*Router)(nil)

// Router resolves recipients from the directory and pushes events to their sinks.
// Delivery is best effort: a full or closed sink only loses its own copy.
type Router struct {
	log         *slog.Logger
	registry    contract.IConnectionRegistry
	directory   contract.IRoomDirectory
	persistence contract.MessageSink
	filter      contract.ContentFilter
	metrics     contract.RelayMetrics
	now         func() time.Time
}

func NewRouter(log *slog.Logger, registry contract.IConnectionRegistry,
	directory contract.IRoomDirectory, persistence contract.MessageSink) *Router {
	return &Router{
		log:         log,
		registry:    registry,
		directory:   directory,
		persistence: persistence,
		metrics:     noopMetrics{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithFilter installs a content filter applied to chat content before broadcast.
func (r *Router) WithFilter(filter contract.ContentFilter) *Router {
	r.filter = filter
	return r
}

// WithMetrics counts routed messages and delivery outcomes.
func (r *Router) WithMetrics(metrics contract.RelayMetrics) *Router {
	r.metrics = metrics
	return r
}

// EnterRoom moves a connection into room: the previous room (if any) is left
// first, then the directory and the connection's room field are updated.
func (r *Router) EnterRoom(ctx context.Context, id domain.ConnectionID, room domain.RoomID) error {
	conn, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, id)
	}
	if conn.InRoom() && conn.Room != room {
		r.directory.Leave(conn.Room, id)
	}
	r.directory.Join(room, id)
	if !r.registry.SetRoom(id, room) {
		// Unregistered in between: undo so the directory never keeps a ghost.
		r.directory.Leave(room, id)
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, id)
	}
	return nil
}

// Welcome tells the other members of room that id arrived.
func (r *Router) Welcome(ctx context.Context, id domain.ConnectionID, room domain.RoomID, text string) {
	r.toOthers(ctx, room, id, event.Welcome{Text: text})
}

// LeaveRoom removes a connection from its current room, if any.
func (r *Router) LeaveRoom(id domain.ConnectionID) error {
	conn, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, id)
	}
	if !conn.InRoom() {
		return nil
	}
	r.directory.Leave(conn.Room, id)
	r.registry.SetRoom(id, "")
	return nil
}

// RouteChat stamps, persists and broadcasts a chat message to the whole room,
// sender included. A persistence failure is logged and never stops the broadcast.
func (r *Router) RouteChat(ctx context.Context, id domain.ConnectionID, content string) error {
	conn, err := r.currentRoom(id)
	if err != nil {
		return err
	}
	if r.filter != nil {
		var words []string
		content, words = r.filter.Censor(content)
		if len(words) > 0 {
			r.log.Debug("Chat message censored", "connection_id", id, "room", conn.Room, "words", len(words))
		}
	}
	message := domain.NewChatMessage(conn.Username, conn.Room, content, r.now())

	if err := r.persistence.Append(ctx, message); err != nil {
		r.log.Error("Chat message not persisted",
			"connection_id", id,
			"room", conn.Room,
			"message_id", message.ID,
			"error", err)
	}

	r.metrics.IncrMessagesRouted()
	r.toRoom(ctx, conn.Room, event.FromChatMessage(message))
	return nil
}

// RouteTyping signals every other member of the sender's room.
func (r *Router) RouteTyping(ctx context.Context, id domain.ConnectionID, active bool) error {
	conn, err := r.currentRoom(id)
	if err != nil {
		return err
	}
	var evt event.DomainEvent = event.StopTyping{}
	if active {
		evt = event.Typing{Text: fmt.Sprintf("%s is typing...", conn.Username)}
	}
	r.toOthers(ctx, conn.Room, id, evt)
	return nil
}

// RouteInvite sends a one-shot invitation to target. A stale target is
// reported to the caller for logging only; the inviter never learns about it.
func (r *Router) RouteInvite(ctx context.Context, from, target domain.ConnectionID, room domain.RoomID) error {
	inviter, ok := r.registry.Get(from)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, from)
	}
	invitation := domain.Invitation{From: inviter.Username, Target: target, Room: room}

	sinks := r.registry.Sinks(invitation.Target)
	if len(sinks) == 0 {
		r.metrics.IncrInvitesUndeliverable()
		return fmt.Errorf("%w: invitation target %s", errors.ErrConnectionNotFound, target)
	}
	r.deliver(ctx, sinks, event.RoomInvite{Room: invitation.Room, From: invitation.From})
	return nil
}

// AcceptInvite moves the connection into the invited room.
func (r *Router) AcceptInvite(ctx context.Context, id domain.ConnectionID, room domain.RoomID) error {
	conn, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, id)
	}
	if err := r.EnterRoom(ctx, id, room); err != nil {
		return err
	}
	r.Welcome(ctx, id, room, fmt.Sprintf("%s joined the room", conn.Username))
	return nil
}

func (r *Router) currentRoom(id domain.ConnectionID) (domain.Connection, error) {
	conn, ok := r.registry.Get(id)
	if !ok {
		return domain.Connection{}, fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, id)
	}
	if !conn.InRoom() {
		return domain.Connection{}, fmt.Errorf("%w: %s", errors.ErrNoCurrentRoom, id)
	}
	return conn, nil
}

func (r *Router) toRoom(ctx context.Context, room domain.RoomID, evt event.DomainEvent) {
	r.deliver(ctx, r.registry.Sinks(r.directory.MembersOf(room)...), evt)
}

func (r *Router) toOthers(ctx context.Context, room domain.RoomID, sender domain.ConnectionID, evt event.DomainEvent) {
	members := lo.Without(r.directory.MembersOf(room), sender)
	r.deliver(ctx, r.registry.Sinks(members...), evt)
}

func (r *Router) deliver(ctx context.Context, sinks []contract.EventSink, evt event.DomainEvent) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			r.metrics.IncrEventsDropped()
			r.log.Debug("Event not delivered", "event", evt.EventType(), "error", err)
			continue
		}
		r.metrics.IncrEventsDelivered()
	}
}

type noopMetrics struct{}

func (noopMetrics) IncrMessagesRouted()       {}
func (noopMetrics) IncrEventsDelivered()      {}
func (noopMetrics) IncrEventsDropped()        {}
func (noopMetrics) IncrInvitesUndeliverable() {}
