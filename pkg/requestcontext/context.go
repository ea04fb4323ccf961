// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them without importing
// anything HTTP-related. All operations within one request observe the
// same "now" timestamp, which also lets tests inject deterministic time.
package requestcontext

import (
	"context"
	"time"

	id "cedent/pkg/domain"
)

type (
	actorIDKey     struct{}
	requestIDKey   struct{}
	clientIPKey    struct{}
	requestTimeKey struct{}
)

// WithActorID stores the authenticated actor (underwriter, adjuster,
// admin) performing the request.
func WithActorID(ctx context.Context, actorID id.UserID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// ActorID returns the acting user ID, or the zero UserID when absent.
func ActorID(ctx context.Context) id.UserID {
	actorID, ok := ctx.Value(actorIDKey{}).(id.UserID)
	if !ok {
		return id.UserID{}
	}
	return actorID
}

// WithRequestID stores the correlation ID for the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// WithClientIP stores the originating client IP for audit snapshots.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the originating client IP, or "" when absent.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// WithTime injects a specific request time. Middleware calls this at the
// start of each request; tests call it to pin the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request-scoped time, falling back to time.Now when no
// middleware ran (direct service calls, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
