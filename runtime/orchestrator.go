// Package runtime owns the live relay state: connections, rooms, presence,
// routing and the per-connection sessions. It wires them together without
// knowing anything about the transport.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var _ contract.IRelay = (*Orchestrator)(nil)

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	registry   *Registry
	directory  *Directory
	presence   *Presence
	router     *Router
	supervisor contract.ISupervisor
	workers    []contract.Worker
}

// NewOrchestrator builds the relay state around a persistence sink.
// filter may be nil when moderation is disabled.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	persistence contract.MessageSink, filter contract.ContentFilter) *Orchestrator {
	registry := NewRegistry()
	directory := NewDirectory()
	router := NewRouter(log, registry, directory, persistence)
	if filter != nil {
		router.WithFilter(filter)
	}
	return &Orchestrator{
		log:        log,
		registry:   registry,
		directory:  directory,
		presence:   NewPresence(log, registry),
		router:     router,
		supervisor: supervisor,
	}
}

// WithMetrics plugs routing counters into the router.
func (o *Orchestrator) WithMetrics(metrics contract.RelayMetrics) *Orchestrator {
	o.router.WithMetrics(metrics)
	return o
}

// Add registers background workers started together with the relay.
func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, workers...)
}

// Connect registers a fresh connection, announces the new presence view
// and returns the session the transport must run and feed.
func (o *Orchestrator) Connect(sink contract.EventSink) contract.ISession {
	id := domain.ConnectionID(uuid.NewString())
	o.registry.Register(id, sink)
	o.log.Info("Connection registered", "connection_id", id)
	o.presence.Broadcast(context.Background())
	return NewSession(id, o.log, o.registry, o.presence, o.router)
}

func (o *Orchestrator) Stats() domain.Stats {
	return domain.Stats{
		Connections: o.registry.Len(),
		Rooms:       o.directory.Len(),
	}
}

func (o *Orchestrator) Registry() contract.IConnectionRegistry { return o.registry }

func (o *Orchestrator) Directory() contract.IRoomDirectory { return o.directory }

// Start runs every registered worker under the supervisor and blocks
// until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// Stop cancels the supervised context; workers drain and return.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
