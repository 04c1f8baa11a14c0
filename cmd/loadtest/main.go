package main

import (
	"chat-relay/client"
	"chat-relay/projection"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	RelayURL          string        `envconfig:"RELAY_URL" default:"ws://localhost:8080/ws"`
	Clients           int           `envconfig:"LOAD_CLIENTS" default:"100"`
	Rooms             int           `envconfig:"LOAD_ROOMS" default:"10"`
	MessagesPerClient int           `envconfig:"LOAD_MESSAGES_PER_CLIENT" default:"50"`
	SendInterval      time.Duration `envconfig:"LOAD_SEND_INTERVAL" default:"10ms"`
	DrainTimeout      time.Duration `envconfig:"LOAD_DRAIN_TIMEOUT" default:"10s"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load test error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.Clients <= 0 || config.Rooms <= 0 {
		return exitConfig, fmt.Errorf("LOAD_CLIENTS and LOAD_ROOMS must be positive")
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timelines := make([]*projection.Timeline, config.Clients)
	clients := make([]*client.Client, 0, config.Clients)
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	for i := range config.Clients {
		timelines[i] = projection.NewTimeline()
		c, err := client.Dial(ctx, config.RelayURL, timelines[i], log)
		if err != nil {
			return exitRuntime, fmt.Errorf("client %d could not connect: %w", i, err)
		}
		clients = append(clients, c)
		if err := c.JoinRoom(fmt.Sprintf("load-%d", i), roomOf(i, config.Rooms)); err != nil {
			return exitRuntime, err
		}
	}
	log.Info("Clients connected", "clients", config.Clients, "rooms", config.Rooms)

	var sent, failed atomic.Uint64
	start := time.Now()
	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(config.SendInterval)
			defer ticker.Stop()
			for n := range config.MessagesPerClient {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				if err := c.Send(fmt.Sprintf("load-%d message %d", i, n)); err != nil {
					failed.Add(1)
					continue
				}
				sent.Add(1)
			}
		}()
	}
	wg.Wait()
	sendDuration := time.Since(start)

	// Every message fans out to all members of its room, sender included.
	expected := 0
	membersPerRoom := lo.CountValuesBy(lo.Range(config.Clients), func(i int) string { return roomOf(i, config.Rooms) })
	for i := range config.Clients {
		expected += config.MessagesPerClient * membersPerRoom[roomOf(i, config.Rooms)]
	}

	deadline := time.After(config.DrainTimeout)
	received := 0
wait:
	for {
		received = lo.SumBy(timelines, func(t *projection.Timeline) int { return len(t.Messages()) })
		if received >= expected {
			break
		}
		select {
		case <-ctx.Done():
			break wait
		case <-deadline:
			break wait
		case <-time.After(100 * time.Millisecond):
		}
	}

	color.Cyanf("\n--- Load test summary ---\n")
	fmt.Printf("Clients:        %d in %d rooms\n", config.Clients, config.Rooms)
	fmt.Printf("Sent:           %d (%d failed) in %v\n", sent.Load(), failed.Load(), sendDuration.Round(time.Millisecond))
	fmt.Printf("Throughput:     %.0f msg/s\n", float64(sent.Load())/sendDuration.Seconds())
	fmt.Printf("Delivered:      %d / %d expected\n", received, expected)
	if received < expected {
		color.Yellow.Printf("Lost:           %d (events dropped on full connection buffers)\n", expected-received)
	} else {
		color.Green.Println("No loss")
	}
	return exitOK, nil
}

func roomOf(i, rooms int) string {
	return fmt.Sprintf("load-room-%d", i%rooms)
}
