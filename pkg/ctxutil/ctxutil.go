// Package ctxutil carries per-request values through context.Context.
package ctxutil

import "context"

type (
	callerKey    struct{}
	requestIDKey struct{}
)

// Caller is the authenticated directory user behind a request.
type Caller struct {
	ID    string
	Name  string
	Email string
}

// WithCaller stores the authenticated caller in the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromCtx returns the caller stored by WithCaller. ok is false for
// anonymous requests and for a caller without an ID.
func CallerFromCtx(ctx context.Context) (c Caller, ok bool) {
	c, ok = ctx.Value(callerKey{}).(Caller)
	if !ok || c.ID == "" {
		return Caller{}, false
	}
	return c, true
}

// UserIDFromCtx is CallerFromCtx reduced to the ID.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	c, ok := CallerFromCtx(ctx)
	return c.ID, ok
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromCtx returns the request ID, or "" outside a request.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
