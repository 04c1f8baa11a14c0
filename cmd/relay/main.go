package main

import (
	"chat-relay/contract"
	grpcserver "chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/wsserver"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (badger, bluge) run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf(".env loading failed: %w", err)
	}
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	filter, err := buildModerator(config, log)
	if err != nil {
		return exitConfig, err
	}

	// 2. History storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchIndex := repositories.NewSearchIndex(blugeWriter, log)

	// 3. Supervision & Orchestration
	persistence := workers.NewPersistenceWorker(log,
		config.PersistenceBufferSize, config.SinkTimeout,
		sink.NewDiskSink(messageRepository, log),
		sink.NewIndexSink(searchIndex),
	)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	monitoring := observability.NewMonitoringManager(log, time.Second)
	orchestrator := runtime.NewOrchestrator(log, supervisor, persistence, filter).
		WithMetrics(monitoring)
	orchestrator.Add(
		persistence,
		monitoring,
		workers.NewHealthMonitoringWorker(log, orchestrator, persistence, monitoring, config.MetricInterval),
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the Engine
	// Workers outlive the signal: persistence must keep draining until every
	// session is gone, orchestrator.Stop ends them.
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		orchestrator.Start(context.WithoutCancel(ctx))
	}()

	// 6. Servers
	grpcListener, err := net.Listen("tcp", config.GrpcAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GrpcAddress(), err)
	}
	healthServer := grpcserver.NewHealthServer(log)

	chatServer := wsserver.NewChatServer(log, orchestrator,
		config.ConnectionBufferSize, config.MaxContentLength, config.WriteTimeout).
		WithMetrics(monitoring)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           chatServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 2)
	go func() {
		if err := healthServer.Serve(grpcListener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting WebSocket server", "address", config.Address(), "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	healthServer.SetServing(true)

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup
	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	chatServer.Close() // blocks until every session is DISCONNECTED
	healthServer.Stop()
	orchestrator.Stop()
	<-engineDone
	log.Info("Program stopped cleanly")

	return code, runErr
}

// buildModerator returns nil when no word list directory is configured.
func buildModerator(config internal.Config, log *slog.Logger) (contract.ContentFilter, error) {
	if config.CensoredDir == "" {
		return nil, nil
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}

	data, err := runtime.NewCensoredLoader(os.DirFS(config.CensoredDir)).LoadAll(".")
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement, log)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}
