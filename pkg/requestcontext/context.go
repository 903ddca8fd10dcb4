// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them; keeping
// this package free of net/http lets the audit writer and document manager
// consume actor identity without pulling in transport code.
package requestcontext

import "context"

type (
	actorIDKey   struct{}
	requestIDKey struct{}
	tenantIDKey  struct{}
)

// WithActorID records the authenticated user performing the request.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// ActorID returns the acting user's id, or zero when unauthenticated.
func ActorID(ctx context.Context) int64 {
	id, _ := ctx.Value(actorIDKey{}).(int64)
	return id
}

// WithRequestID records the correlation id assigned by middleware.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithTenantID records the tenant the request is scoped to.
func WithTenantID(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

// TenantID returns the tenant id, or zero when absent.
func TenantID(ctx context.Context) int64 {
	id, _ := ctx.Value(tenantIDKey{}).(int64)
	return id
}
