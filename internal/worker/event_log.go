package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"recorridos/internal/amqp"
	"recorridos/internal/cache"
	"recorridos/internal/sheets"
)

// EventLogWorker copies recorrido events into the sheet log.
type EventLogWorker struct {
	log  sheets.EventLog
	seen *cache.LRUCache[struct{}]

	appended atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

// headerWriter is implemented by logs that need a header row.
type headerWriter interface {
	EnsureHeader(ctx context.Context) error
}

// NewEventLogWorker remembers the last dedupeSize events for dedupeTTL so a
// redelivered message is not logged twice.
func NewEventLogWorker(log sheets.EventLog, dedupeSize int, dedupeTTL time.Duration) *EventLogWorker {
	return &EventLogWorker{
		log:  log,
		seen: cache.NewLRUCache[struct{}](dedupeSize, dedupeTTL),
	}
}

// Start prepares the log before consuming.
func (w *EventLogWorker) Start(ctx context.Context) error {
	if hw, ok := w.log.(headerWriter); ok {
		if err := hw.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("ensure header: %w", err)
		}
	}
	return nil
}

// HandleEvent has the amqp.Handler signature.
func (w *EventLogWorker) HandleEvent(ctx context.Context, ev *amqp.RecorridoEvent) error {
	key := eventKey(ev)
	if _, ok := w.seen.Get(key); ok {
		w.skipped.Add(1)
		slog.DebugContext(ctx, "Skipping duplicate event", "key", key)
		return nil
	}

	if err := w.log.AppendEvent(ctx, ev); err != nil {
		w.failed.Add(1)
		slog.ErrorContext(ctx, "Failed to log event",
			"type", ev.Type,
			"recorrido_id", ev.RecorridoID,
			"error", err)
		return fmt.Errorf("append event: %w", err)
	}

	w.seen.Set(key, struct{}{})
	w.appended.Add(1)
	slog.InfoContext(ctx, "Event logged",
		"type", ev.Type,
		"recorrido_id", ev.RecorridoID,
		"actor", ev.Actor)
	return nil
}

// Seen exposes the dedupe cache for periodic cleanup.
func (w *EventLogWorker) Seen() *cache.LRUCache[struct{}] {
	return w.seen
}

// Stats returns appended, skipped and failed counts.
func (w *EventLogWorker) Stats() (appended, skipped, failed int64) {
	return w.appended.Load(), w.skipped.Load(), w.failed.Load()
}

func eventKey(ev *amqp.RecorridoEvent) string {
	return string(ev.Type) + ":" + strconv.FormatInt(ev.RecorridoID, 10) + ":" +
		strconv.FormatInt(ev.OccurredAt.UnixNano(), 10)
}
