package wsserver_test

import (
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/wsserver"
	"chat-relay/mocks"
	"chat-relay/projection"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testServer struct {
	url          string
	httpServer   *httptest.Server
	chatServer   *wsserver.ChatServer
	orchestrator *runtime.Orchestrator
}

func newTestServer(t *testing.T) testServer {
	return newTestServerWithLimit(t, 100)
}

func newTestServerWithLimit(t *testing.T, maxContentLength int) testServer {
	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockMessageSink(ctrl)
	persistence.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), persistence, nil)
	chatServer := wsserver.NewChatServer(log, orchestrator, 64, maxContentLength, time.Second)
	httpServer := httptest.NewServer(chatServer.Handler())
	t.Cleanup(func() {
		chatServer.Close()
		httpServer.Close()
	})
	return testServer{
		url:          "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
		httpServer:   httpServer,
		chatServer:   chatServer,
		orchestrator: orchestrator,
	}
}

func (s testServer) dial(t *testing.T) (*client.Client, *projection.Timeline) {
	timeline := projection.NewTimeline()
	c, err := client.Dial(context.Background(), s.url, timeline, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, timeline
}

func eventually(t *testing.T, condition func() bool, msg string) {
	require.Eventually(t, condition, 2*time.Second, 10*time.Millisecond, msg)
}

func TestChatServer_Alice_And_Bob_Chat(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, aliceTimeline := server.dial(t)
	bob, bobTimeline := server.dial(t)

	// Given both joined r1
	req.NoError(alice.JoinRoom("alice", "r1"))
	eventually(t, func() bool { return len(server.orchestrator.Directory().MembersOf("r1")) == 1 }, "alice not in r1")
	req.NoError(bob.JoinRoom("bob", "r1"))
	eventually(t, func() bool { return len(server.orchestrator.Directory().MembersOf("r1")) == 2 }, "bob not in r1")

	// When alice says hi
	req.NoError(alice.Send("hi"))

	// Then both receive it
	for _, timeline := range []*projection.Timeline{aliceTimeline, bobTimeline} {
		eventually(t, func() bool {
			return lo.ContainsBy(timeline.Messages(), func(m domain.ChatMessage) bool {
				return m.Username == "alice" && m.Content == "hi"
			})
		}, "hi not delivered")
	}
	eventually(t, func() bool { return len(aliceTimeline.EventsOf(event.WelcomeType)) == 1 }, "alice not told about bob")
	req.Empty(bobTimeline.EventsOf(event.WelcomeType))
}

func TestChatServer_Malformed_Frame_Keeps_Session_Alive(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, aliceTimeline := server.dial(t)

	req.NoError(alice.SendRaw([]byte("{{{ not json")))
	req.NoError(alice.SendRaw([]byte(`{"event":"shout","data":{}}`)))
	req.NoError(alice.JoinRoom("alice", "r1"))
	req.NoError(alice.Send("still here"))

	eventually(t, func() bool { return len(aliceTimeline.Messages()) == 1 }, "session died after malformed frames")
}

func TestChatServer_Disconnect_Updates_Presence(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	_, stayTimeline := server.dial(t)
	leaving, _ := server.dial(t)
	eventually(t, func() bool { return len(stayTimeline.Users()) == 2 }, "second connection not announced")

	req.NoError(leaving.Close())

	eventually(t, func() bool { return len(stayTimeline.Users()) == 1 }, "disconnect not announced")
	eventually(t, func() bool { return server.orchestrator.Stats().Connections == 1 }, "registry not cleaned")
}

func TestChatServer_Stats_Endpoint(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, _ := server.dial(t)
	req.NoError(alice.JoinRoom("alice", "r1"))
	eventually(t, func() bool { return server.orchestrator.Stats().Rooms == 1 }, "room not created")

	resp, err := http.Get(server.httpServer.URL + "/api/stats")
	req.NoError(err)
	defer resp.Body.Close()

	var stats map[string]int
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Equal(map[string]int{"connections": 1, "rooms": 1}, stats)
}

func TestChatServer_Close_Returns_Once_Sessions_Are_Disconnected(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, _ := server.dial(t)
	bob, _ := server.dial(t)
	req.NoError(alice.JoinRoom("alice", "r1"))
	req.NoError(bob.JoinRoom("bob", "r1"))
	eventually(t, func() bool { return len(server.orchestrator.Directory().MembersOf("r1")) == 2 }, "room not joined")

	// When the server closes
	server.chatServer.Close()

	// Then nothing is left to route a chat message, without waiting further
	req.Equal(domain.Stats{}, server.orchestrator.Stats())
	select {
	case <-alice.Done():
	case <-time.After(2 * time.Second):
		req.Fail("client never saw the connection close")
	}
}

func TestChatServer_Escaped_Content_Within_Limit_Is_Relayed(t *testing.T) {
	req := require.New(t)
	const limit = 200
	server := newTestServerWithLimit(t, limit)
	alice, aliceTimeline := server.dial(t)
	req.NoError(alice.JoinRoom("alice", "r1"))
	eventually(t, func() bool { return len(server.orchestrator.Directory().MembersOf("r1")) == 1 }, "alice not in r1")

	// When the content is exactly the limit, every rune sent as an escaped surrogate pair
	escaped := strings.Repeat(`\uD83D\uDE00`, limit)
	req.NoError(alice.SendRaw([]byte(`{"event":"chatMessage","data":{"content":"` + escaped + `"}}`)))

	// Then the connection survives and the message comes back
	eventually(t, func() bool { return len(aliceTimeline.Messages()) == 1 }, "escaped content dropped")
	req.Equal(strings.Repeat("😀", limit), aliceTimeline.Messages()[0].Content)
}

func TestChatServer_No_Content_Limit_Means_No_Frame_Limit(t *testing.T) {
	server := newTestServerWithLimit(t, 0)
	alice, aliceTimeline := server.dial(t)
	require.NoError(t, alice.JoinRoom("alice", "r1"))
	eventually(t, func() bool { return len(server.orchestrator.Directory().MembersOf("r1")) == 1 }, "alice not in r1")

	require.NoError(t, alice.Send(strings.Repeat("a", 10_000)))

	eventually(t, func() bool { return len(aliceTimeline.Messages()) == 1 }, "large content dropped")
}
