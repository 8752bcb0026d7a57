// Package reqctx carries per-request values (request id, authenticated
// username, client idempotency key) through context.Context.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

type usernameKey struct{}

type idempotencyKey struct{}

// NewRequestID generates a random UUID v4 request ID.
func NewRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns "" if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithUsername records the authenticated account on ctx.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// Username returns "" for unauthenticated requests.
func Username(ctx context.Context) string {
	u, _ := ctx.Value(usernameKey{}).(string)
	return u
}

// WithIdempotencyKey records the client-supplied key for a side-effecting call.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKey returns the client-supplied key, falling back to the request
// id so a retry carrying the same X-Request-ID is still deduplicated. It
// returns "" when neither is set.
func IdempotencyKey(ctx context.Context) string {
	if key, _ := ctx.Value(idempotencyKey{}).(string); key != "" {
		return key
	}
	return RequestID(ctx)
}
