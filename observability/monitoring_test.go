package observability

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Refresh_Loads_Counters(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)

	// Given concurrent activity
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mm.IncrMessagesRouted()
			mm.IncrEventsDelivered()
			mm.IncrEventsDelivered()
			mm.IncrEventsDropped()
		}()
	}
	wg.Wait()
	mm.IncrInvitesUndeliverable()

	// Snapshot is stale until the next refresh
	req.Zero(mm.GetLatest().MessagesRouted)

	mm.Refresh()

	latest := mm.GetLatest()
	req.Equal(uint64(10), latest.MessagesRouted)
	req.Equal(uint64(20), latest.EventsDelivered)
	req.Equal(uint64(10), latest.EventsDropped)
	req.Equal(uint64(1), latest.InvitesUndeliverable)
	req.Positive(latest.NumGoroutine)
}

func TestMonitoringManager_Rate_Is_Per_Interval(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)
	mm.IncrMessagesRouted()
	mm.Refresh()
	req.Positive(mm.GetLatest().MessagesPerSecond)

	// Nothing routed since the last refresh
	time.Sleep(5 * time.Millisecond)
	mm.Refresh()
	req.Zero(mm.GetLatest().MessagesPerSecond)
	req.Equal(uint64(1), mm.GetLatest().MessagesRouted)
}
