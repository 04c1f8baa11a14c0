package e2e

import (
	"chat-relay/client"
	"chat-relay/projection"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseRelaySuite struct {
	suite.Suite
	Config       Config
	eventTimeout time.Duration
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayURL == "" {
		s.T().Skip("RELAY_URL not set, skipping end-to-end suite")
	}
	s.eventTimeout, err = time.ParseDuration(s.Config.EventTimeout)
	s.Require().NoError(err)
}

func (s *BaseRelaySuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseRelaySuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	s.header(t, name)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithHealth provides a health client within a contextual test step
func (s *BaseRelaySuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	conn := s.GrpcConn(s.T(), name, s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn(ctx, healthpb.NewHealthClient(conn))
}

// Participant is a websocket client and the timeline of everything it received.
type Participant struct {
	*client.Client
	Timeline *projection.Timeline
}

// Connect opens a new participant, closed automatically at the end of the test.
func (s *BaseRelaySuite) Connect(name string) Participant {
	s.header(s.T(), "connect "+name)
	timeline := projection.NewTimeline()
	c, err := client.Dial(context.Background(), s.Config.RelayURL, timeline, logs.GetLoggerFromLevel(slog.LevelDebug))
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayURL)
	s.T().Cleanup(func() { _ = c.Close() })
	return Participant{Client: c, Timeline: timeline}
}

// Eventually waits for condition with the configured event timeout.
func (s *BaseRelaySuite) Eventually(condition func() bool, msg string) {
	s.Require().Eventually(condition, s.eventTimeout, 20*time.Millisecond, msg)
}
