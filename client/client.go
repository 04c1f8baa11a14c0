// Package client is a small WebSocket client of the relay, used by the
// command line tools and by end-to-end tests.
package client

import (
	"chat-relay/contract"
	"chat-relay/infrastructure/wsserver"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeTimeout bounds how long Close waits for the server close frame.
const closeTimeout = time.Second

type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *slog.Logger
	done chan struct{}
}

// Dial connects to url (ws://host:port/ws) and starts delivering every
// received event to sink until the connection closes.
func Dial(ctx context.Context, url string, sink contract.EventSink, log *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, log: log, done: make(chan struct{})}
	go c.receive(ctx, sink)
	return c, nil
}

func (c *Client) receive(ctx context.Context, sink contract.EventSink) {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Connection closed", "error", err)
			}
			return
		}
		evt, err := wsserver.DecodeEvent(data)
		if err != nil {
			c.log.Debug("Unknown event ignored", "error", err)
			continue
		}
		if err := sink.Consume(ctx, evt); err != nil {
			c.log.Debug("Event not consumed", "event", evt.EventType(), "error", err)
		}
	}
}

func (c *Client) JoinRoom(username, room string) error {
	return c.send(wsserver.JoinRoomEvent, wsserver.JoinRoomPayload{Username: username, Room: room})
}

func (c *Client) Send(content string) error {
	return c.send(wsserver.ChatMessageEvent, wsserver.ChatMessagePayload{Content: content})
}

func (c *Client) Typing(active bool) error {
	if active {
		return c.send(wsserver.TypingEvent, nil)
	}
	return c.send(wsserver.StopTypingEvent, nil)
}

func (c *Client) Invite(target, room string) error {
	return c.send(wsserver.InviteToRoomEvent, wsserver.InviteToRoomPayload{TargetConnectionID: target, Room: room})
}

func (c *Client) AcceptInvite(room string) error {
	return c.send(wsserver.AcceptInviteEvent, wsserver.AcceptInvitePayload{Room: room})
}

// SendRaw writes an arbitrary frame, malformed ones included.
func (c *Client) SendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) send(eventName string, payload any) error {
	frame, err := wsserver.EncodeCommand(eventName, payload)
	if err != nil {
		return err
	}
	return c.SendRaw(frame)
}

// Done is closed when the receive loop stopped.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close performs a clean close handshake and waits for the receive loop.
func (c *Client) Close() error {
	c.mu.Lock()
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	if err != nil {
		_ = c.conn.Close()
		return err
	}
	select {
	case <-c.done:
	case <-time.After(closeTimeout):
	}
	return c.conn.Close()
}
