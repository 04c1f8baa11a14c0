// Package server hosts the operational gRPC endpoint of the relay.
package server

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name probes should query.
// The empty name reports the overall server status.
const ServiceName = "chat.relay"

type HealthServer struct {
	log    *slog.Logger
	server *grpc.Server
	health *health.Server
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, server: s, health: h}
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(listener net.Listener) error {
	h.log.Info("Starting gRPC health server", "address", listener.Addr().String())
	return h.server.Serve(listener)
}

func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	h.health.SetServingStatus("", status)
}

// Stop flips every service to NOT_SERVING, then drains in-flight RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
