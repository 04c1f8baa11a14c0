package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ contract.Worker      = (*PersistenceWorker)(nil)
	_ contract.MessageSink = (*PersistenceWorker)(nil)
)

// PersistenceWorker decouples chat broadcast from storage.
//
// Append only enqueues: it never blocks, and a full buffer loses the message
// from storage (it was still delivered live). Run drains the queue and hands
// every message to each downstream sink with its own timeout. Failures are
// logged, never retried and never reported to the chat protocol.
// Once Run has drained on cancellation, Append refuses new messages so that
// nothing sits in a queue nobody reads.
type PersistenceWorker struct {
	mu          sync.RWMutex
	stopped     bool
	log         *slog.Logger
	messages    chan domain.ChatMessage
	sinks       []contract.MessageSink
	sinkTimeout time.Duration
	dropped     atomic.Uint64
	failed      atomic.Uint64
}

func NewPersistenceWorker(log *slog.Logger, bufferSize int, sinkTimeout time.Duration,
	sinks ...contract.MessageSink) *PersistenceWorker {
	return &PersistenceWorker{
		log:         log,
		messages:    make(chan domain.ChatMessage, bufferSize),
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
	}
}

func (w *PersistenceWorker) Append(_ context.Context, message domain.ChatMessage) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		w.dropped.Add(1)
		return errors.ErrPersistenceStopped
	}
	select {
	case w.messages <- message:
		return nil
	default:
		w.dropped.Add(1)
		return errors.ErrPersistenceBufferFull
	}
}

func (w *PersistenceWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()
			w.drain()
			w.log.Debug("Context done, stopping persistence")
			return nil
		case message := <-w.messages:
			w.persist(ctx, message)
		}
	}
}

// drain flushes what is already queued once the relay stops accepting traffic.
func (w *PersistenceWorker) drain() {
	for {
		select {
		case message := <-w.messages:
			w.persist(context.Background(), message)
		default:
			return
		}
	}
}

func (w *PersistenceWorker) persist(ctx context.Context, message domain.ChatMessage) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Append(sinkCtx, message); err != nil {
			w.failed.Add(1)
			w.log.Error("Persistence sink failed",
				"message_id", message.ID,
				"room", message.Room,
				"error", err)
		}
		cancel()
	}
}

// Dropped counts messages lost because the buffer was full or the worker stopped.
func (w *PersistenceWorker) Dropped() uint64 { return w.dropped.Load() }

// Failed counts sink appends that returned an error.
func (w *PersistenceWorker) Failed() uint64 { return w.failed.Load() }
