// Package requestcontext carries request-scoped values from the HTTP
// middleware into the case service without importing net/http.
//
// Middleware sets values; the service and activity recorder read them:
//
//	ctx = requestcontext.WithActor(ctx, domain.Actor{ID: "U002", Role: domain.RoleChecker})
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests pin the clock with WithTime so stamped timestamps and snapshot
// validity dates are deterministic.
package requestcontext

import (
	"context"
	"time"

	"casedesk/pkg/domain"
)

type key int

const (
	actorKey key = iota
	clientIPKey
	userAgentKey
	requestIDKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// Actor returns the authenticated caller, or the zero Actor.
func Actor(ctx context.Context) domain.Actor {
	a, _ := value[domain.Actor](ctx, actorKey)
	return a
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ClientIP(ctx context.Context) string {
	ip, _ := value[string](ctx, clientIPKey)
	return ip
}

func UserAgent(ctx context.Context) string {
	ua, _ := value[string](ctx, userAgentKey)
	return ua
}

// WithClientMetadata records where the request came from. Activity entries
// copy both values.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, requestIDKey)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the time the request was received, so every stamp made while
// handling one request agrees. Outside a request it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
