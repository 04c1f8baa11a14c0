package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var _ contract.ISession = (*Session)(nil)

// Session drives the state machine of one connection:
//
//	CONNECTED --joinRoom--> IN_ROOM --joinRoom|acceptInvite--> IN_ROOM
//	any --disconnect--> DISCONNECTED (terminal)
//
// Commands arrive through an unbuffered inbox and are handled one at a time
// by Run, so a connection never races with itself. Different sessions run
// concurrently; shared state lives behind the registry and directory locks.
type Session struct {
	mu        sync.Mutex
	id        domain.ConnectionID
	state     domain.SessionState
	log       *slog.Logger
	registry  contract.IConnectionRegistry
	presence  contract.IPresenceTracker
	router    contract.IRouter
	inbox     chan chat.Command
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(id domain.ConnectionID, log *slog.Logger, registry contract.IConnectionRegistry,
	presence contract.IPresenceTracker, router contract.IRouter) *Session {
	return &Session{
		id:       id,
		state:    domain.StateConnected,
		log:      log.With("connection_id", id),
		registry: registry,
		presence: presence,
		router:   router,
		inbox:    make(chan chat.Command),
		done:     make(chan struct{}),
	}
}

func (s *Session) ID() domain.ConnectionID { return s.id }

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session reached DISCONNECTED and Run returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Dispatch hands a command to Run. It fails with ErrSessionClosed once the
// session is terminal, so late transport events are dropped, not queued.
func (s *Session) Dispatch(ctx context.Context, cmd chat.Command) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.inbox <- cmd:
		return nil
	}
}

// Run consumes the inbox until a disconnect is handled or ctx is canceled.
// Cancellation disconnects the session as if the transport had dropped.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeOnce.Do(func() { close(s.done) })
	for {
		select {
		case <-ctx.Done():
			s.disconnect(context.WithoutCancel(ctx))
			return nil
		case cmd := <-s.inbox:
			if err := s.Handle(ctx, cmd); err != nil {
				s.log.Debug("Command dropped", "command", fmt.Sprintf("%T", cmd), "error", err)
			}
			if s.State() == domain.StateDisconnected {
				return nil
			}
		}
	}
}

// Handle applies one command synchronously. Returned errors describe why a
// command was dropped; they are never reported back to the client.
func (s *Session) Handle(ctx context.Context, cmd chat.Command) error {
	state := s.State()
	if state == domain.StateDisconnected {
		return errors.ErrSessionClosed
	}

	switch c := cmd.(type) {
	case chat.JoinRoomCommand:
		return s.joinRoom(ctx, c)
	case chat.PostMessageCommand:
		return s.router.RouteChat(ctx, s.id, c.Content)
	case chat.TypingCommand:
		return s.router.RouteTyping(ctx, s.id, c.Active)
	case chat.InviteCommand:
		if state != domain.StateInRoom {
			return errors.ErrNotJoined
		}
		return s.router.RouteInvite(ctx, s.id, c.Target, c.Room)
	case chat.AcceptInviteCommand:
		if state != domain.StateInRoom {
			return errors.ErrNotJoined
		}
		return s.router.AcceptInvite(ctx, s.id, c.Room)
	case chat.DisconnectCommand:
		s.disconnect(ctx)
		return nil
	default:
		return fmt.Errorf("%w: %T", errors.ErrUnknownCommand, cmd)
	}
}

func (s *Session) joinRoom(ctx context.Context, c chat.JoinRoomCommand) error {
	if !s.registry.SetUsername(s.id, c.Username) {
		return fmt.Errorf("%w: %s", errors.ErrConnectionNotFound, s.id)
	}
	if err := s.router.EnterRoom(ctx, s.id, c.Room); err != nil {
		return err
	}
	s.setState(domain.StateInRoom)
	// userList first, so members already know the name the welcome refers to
	s.presence.Broadcast(ctx)
	s.router.Welcome(ctx, s.id, c.Room, fmt.Sprintf("%s joined room: %s", c.Username, c.Room))
	s.log.Info("Joined room", "username", c.Username, "room", c.Room)
	return nil
}

func (s *Session) disconnect(ctx context.Context) {
	if s.State() == domain.StateDisconnected {
		return
	}
	if err := s.router.LeaveRoom(s.id); err != nil {
		s.log.Debug("Leave on disconnect skipped", "error", err)
	}
	s.registry.Unregister(s.id)
	s.setState(domain.StateDisconnected)
	s.presence.Broadcast(ctx)
	s.log.Info("Disconnected")
}

func (s *Session) setState(state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}
