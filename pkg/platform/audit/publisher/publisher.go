// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered inbox consumed by an audit worker when
// async mode is enabled.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "cedent/pkg/platform/audit"
	"cedent/pkg/requestcontext"
)

// Publisher implements audit.Recorder on top of an audit.Store. In async
// mode it only enqueues; persistence happens in the worker draining Inbox.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async delivery with the given buffer size.
// When the buffer is full events are dropped rather than blocking the
// request path; audit delivery must never stall a lifecycle operation.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger used for drop/persist failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inbox exposes the async event channel for the worker to consume.
// It is nil in sync mode; callers wire a worker only when it is not.
func (p *Publisher) Inbox() <-chan audit.Event {
	return p.inbox
}

// Emit records an audit event. Missing timestamps are filled from the
// request-scoped clock so snapshots and logs line up.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.PerformedAt.IsZero() {
		event.PerformedAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IPAddress == "" {
		event.IPAddress = requestcontext.ClientIP(ctx)
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"action", event.Action,
		)
	}
	return nil
}

// List returns stored events for an entity, for admin surfaces and tests.
func (p *Publisher) List(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Event, error) {
	return p.store.ListByEntity(ctx, entityType, entityID)
}

// Close stops accepting async events and signals the worker by closing
// the inbox; the worker drains whatever is buffered before returning.
// Sync-mode publishers close to a no-op.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
		}
	})
}
