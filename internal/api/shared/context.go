package shared

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// SessionUserIDKey is the context key for the user ID carried by a validated session
	SessionUserIDKey ContextKey = "sessionUserID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID on requests and responses.
	TraceIDHeader = "X-Trace-ID"
)

// inboundTraceID limits which caller-supplied trace IDs are reused.
var inboundTraceID = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// SetTraceID adds a new random trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// WithTraceID adds the given trace ID to the context. An ID that is empty or
// not safe to echo back is replaced by a new random one.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if !inboundTraceID.MatchString(traceID) {
		traceID = uuid.NewString()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithSessionUserID stores the user ID of a validated session.
func WithSessionUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, SessionUserIDKey, userID)
}

// GetSessionUserID returns the session user ID, if the request carried a
// validated session.
func GetSessionUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(SessionUserIDKey).(string)
	return userID, ok && userID != ""
}
