// Package wsserver exposes the relay over WebSocket connections.
// Every connection gets one session, one reader loop and one writer loop.
package wsserver

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/observability"
	"chat-relay/sink"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// A rune outside the BMP escaped as a JSON surrogate pair: \uD83D\uDE00
	maxBytesPerRune = 12
	envelopeBytes   = 1024
)

// readLimitFor sizes a frame so that any content within maxContentLength
// fits. Zero disables both the content limit and the frame limit.
func readLimitFor(maxContentLength int) int64 {
	if maxContentLength <= 0 {
		return 0
	}
	return int64(maxContentLength)*maxBytesPerRune + envelopeBytes
}

type ChatServer struct {
	mu                   sync.Mutex
	log                  *slog.Logger
	relay                contract.IRelay
	decoder              *Decoder
	upgrader             websocket.Upgrader
	connectionBufferSize int
	readLimit            int64
	writeTimeout         time.Duration
	metrics              *observability.MonitoringManager
	conns                map[*websocket.Conn]struct{}
	closed               bool
	active               sync.WaitGroup
}

func NewChatServer(log *slog.Logger, relay contract.IRelay,
	connectionBufferSize, maxContentLength int, writeTimeout time.Duration) *ChatServer {
	return &ChatServer{
		log:     log,
		relay:   relay,
		decoder: NewDecoder(maxContentLength),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connectionBufferSize: connectionBufferSize,
		readLimit:            readLimitFor(maxContentLength),
		writeTimeout:         writeTimeout,
		conns:                make(map[*websocket.Conn]struct{}),
	}
}

// WithMetrics adds the monitoring snapshot to the stats endpoint.
func (s *ChatServer) WithMetrics(metrics *observability.MonitoringManager) *ChatServer {
	s.metrics = metrics
	return s
}

// ServeHTTP upgrades the request and blocks until the connection is gone
// and its session reached DISCONNECTED.
func (s *ChatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if !s.track(conn) {
		s.log.Debug("Connection refused, server is closing", "remote", r.RemoteAddr)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	outbound := sink.NewConnectionSink(s.connectionBufferSize)
	session := s.relay.Connect(outbound)
	log := s.log.With("connection_id", session.ID())
	log.Info("WebSocket connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	go func() {
		if err := session.Run(ctx); err != nil {
			log.Debug("Session stopped", "error", err)
		}
	}()

	written := make(chan struct{})
	go func() {
		defer close(written)
		s.writePump(ctx, conn, outbound, log)
	}()

	s.readPump(ctx, conn, session, log)

	if err := session.Dispatch(ctx, chat.DisconnectCommand{Connection: session.ID()}); err != nil {
		log.Debug("Disconnect not dispatched", "error", err)
	}
	<-session.Done()
	outbound.Close()
	<-written
	log.Info("WebSocket disconnected")
}

func (s *ChatServer) readPump(ctx context.Context, conn *websocket.Conn, session contract.ISession, log *slog.Logger) {
	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket error", "error", err)
			}
			return
		}
		cmd, err := s.decoder.Decode(session.ID(), data)
		if err != nil {
			log.Debug("Malformed event dropped", "error", err)
			continue
		}
		if err := session.Dispatch(ctx, cmd); err != nil {
			log.Debug("Session no longer accepts events", "error", err)
			return
		}
	}
}

// writePump is the only writer of conn. It exits once the sink is closed,
// ctx is canceled or a write fails; a failed write closes the connection so
// that the reader unblocks too.
func (s *ChatServer) writePump(ctx context.Context, conn *websocket.Conn, outbound *sink.ConnectionSink, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-outbound.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := Encode(evt)
			if err != nil {
				log.Error("Event encoding failed", "event", evt.EventType(), "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("Failed to push event to connection", "event", evt.EventType(), "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// track returns false once Close has started.
func (s *ChatServer) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.active.Add(1)
	return true
}

func (s *ChatServer) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.active.Done()
}

// Close drops every open connection and returns once each session reached
// DISCONNECTED, so no chat message can be routed after it. Hijacked
// connections are not closed by http.Server.Shutdown.
func (s *ChatServer) Close() {
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.active.Wait()
}

// Handler returns the HTTP routes of the relay.
func (s *ChatServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

func (s *ChatServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.relay.Stats()
	body := map[string]any{
		"connections": stats.Connections,
		"rooms":       stats.Rooms,
	}
	if s.metrics != nil {
		body["metrics"] = s.metrics.GetLatest()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Stats encoding failed", "error", err)
	}
}
