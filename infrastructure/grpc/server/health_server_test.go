package server

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServer_Reports_Serving_Status(t *testing.T) {
	req := require.New(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	h := NewHealthServer(logs.GetLoggerFromLevel(slog.LevelDebug))
	go func() { _ = h.Serve(listener) }()
	t.Cleanup(h.Stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	req.NoError(err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		req.NoError(err)
		return resp.GetStatus()
	}

	// Given a relay still starting
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check())

	// When it is ready
	h.SetServing(true)
	req.Equal(healthpb.HealthCheckResponse_SERVING, check())

	// Then shutting down flips it back
	h.SetServing(false)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check())
}
