// Package observability keeps the relay counters and a periodically
// refreshed snapshot of them for logs and the stats endpoint.
package observability

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ contract.RelayMetrics = (*MonitoringManager)(nil)
	_ contract.Worker       = (*MonitoringManager)(nil)
)

// MonitoringStats aggregates every metric exposed to operators
type MonitoringStats struct {
	MessagesRouted       uint64  `json:"messages_routed"`
	MessagesPerSecond    float64 `json:"messages_per_second"`
	EventsDelivered      uint64  `json:"events_delivered"`
	EventsDropped        uint64  `json:"events_dropped"`
	InvitesUndeliverable uint64  `json:"invites_undeliverable"`
	AllocMemMb           uint64  `json:"alloc_mem_mb"`
	NumGC                uint32  `json:"num_gc"`
	NumGoroutine         int     `json:"num_goroutine"`
}

// MonitoringManager counts relay activity with atomics; Run turns the
// counters into a snapshot every refresh interval.
type MonitoringManager struct {
	log             *slog.Logger
	refreshInterval time.Duration
	mu              sync.RWMutex
	latestStats     MonitoringStats

	messagesRouted       atomic.Uint64
	eventsDelivered      atomic.Uint64
	eventsDropped        atomic.Uint64
	invitesUndeliverable atomic.Uint64

	lastCheck  time.Time
	lastRouted uint64
}

func NewMonitoringManager(log *slog.Logger, refreshInterval time.Duration) *MonitoringManager {
	return &MonitoringManager{
		log:             log,
		refreshInterval: refreshInterval,
		lastCheck:       time.Now(),
	}
}

func (mm *MonitoringManager) IncrMessagesRouted() { mm.messagesRouted.Add(1) }

func (mm *MonitoringManager) IncrEventsDelivered() { mm.eventsDelivered.Add(1) }

func (mm *MonitoringManager) IncrEventsDropped() { mm.eventsDropped.Add(1) }

func (mm *MonitoringManager) IncrInvitesUndeliverable() { mm.invitesUndeliverable.Add(1) }

// Run refreshes the snapshot until ctx is canceled.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Debug("Context done, stopping monitoring manager")
			return nil
		case <-ticker.C:
			mm.Refresh()
		}
	}
}

// Refresh computes rates since the previous call and reloads the cumulated counters.
func (mm *MonitoringManager) Refresh() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	routed := mm.messagesRouted.Load()
	if duration := now.Sub(mm.lastCheck).Seconds(); duration > 0 {
		mm.latestStats.MessagesPerSecond = float64(routed-mm.lastRouted) / duration
	}
	mm.lastCheck = now
	mm.lastRouted = routed

	mm.latestStats.MessagesRouted = routed
	mm.latestStats.EventsDelivered = mm.eventsDelivered.Load()
	mm.latestStats.EventsDropped = mm.eventsDropped.Load()
	mm.latestStats.InvitesUndeliverable = mm.invitesUndeliverable.Load()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC
	mm.latestStats.NumGoroutine = runtime.NumGoroutine()
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}
