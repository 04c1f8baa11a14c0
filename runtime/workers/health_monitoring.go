package workers

import (
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsProvider is implemented by the orchestrator.
type StatsProvider interface {
	Stats() domain.Stats
}

// PersistenceCounters is implemented by PersistenceWorker.
type PersistenceCounters interface {
	Dropped() uint64
	Failed() uint64
}

// MetricsProvider is implemented by observability.MonitoringManager.
type MetricsProvider interface {
	GetLatest() observability.MonitoringStats
}

// HealthMonitoringWorker periodically logs the relay state and the
// resource usage of the current process.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	stats          StatsProvider
	persistence    PersistenceCounters
	metrics        MetricsProvider
	metricInterval time.Duration
}

// persistence and metrics may be nil.
func NewHealthMonitoringWorker(log *slog.Logger, stats StatsProvider,
	persistence PersistenceCounters, metrics MetricsProvider, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		stats:          stats,
		persistence:    persistence,
		metrics:        metrics,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *HealthMonitoringWorker) report(p *process.Process) {
	stats := w.stats.Stats()
	attrs := []any{
		"connections", stats.Connections,
		"rooms", stats.Rooms,
	}
	if w.persistence != nil {
		attrs = append(attrs,
			"persistence_dropped", w.persistence.Dropped(),
			"persistence_failed", w.persistence.Failed())
	}
	if w.metrics != nil {
		latest := w.metrics.GetLatest()
		attrs = append(attrs,
			"messages_routed", latest.MessagesRouted,
			"messages_per_second", latest.MessagesPerSecond,
			"events_dropped", latest.EventsDropped,
			"goroutines", latest.NumGoroutine)
	}

	if status, err := p.Status(); err == nil {
		attrs = append(attrs, "status", domain.ParseProcessState(status))
	}
	if cpu, err := p.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	} else {
		w.log.Debug("Error while finding process cpu usage", "err", err)
	}
	if mem, err := p.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_bytes", mem.RSS)
	} else {
		w.log.Debug("Error while finding process ram usage", "err", err)
	}
	w.log.Info("Relay health", attrs...)
}
