package services

import "context"

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	postIDKey    contextKey = "post_id"
	requestIDKey contextKey = "request_id"
)

// WithUserID annotates context with the acting user identifier.
func WithUserID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the acting user identifier if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(userIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPostID annotates context with the post identifier being operated on.
func WithPostID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, postIDKey, id)
}

// PostIDFromContext extracts the post identifier if present.
func PostIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(postIDKey)
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
