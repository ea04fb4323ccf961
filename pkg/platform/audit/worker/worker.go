// Package worker persists audit events enqueued by an async publisher.
package worker

import (
	"context"
	"log/slog"

	audit "cedent/pkg/platform/audit"
)

// Worker consumes audit events from a publisher inbox and appends them
// to the store. Persist failures are logged, not returned: once an event
// is accepted into the inbox, delivery is best effort and must not take
// the process down with it.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until the inbox is closed, then returns nil. Cancelling
// ctx stops early after flushing whatever is already buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// The flush still has to reach the store after cancellation.
			w.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.append(ctx, event)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error("failed to persist audit event",
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"action", event.Action,
			"error", err,
		)
	}
}
