// Context helpers propagate the active trace context and request-scoped ids
// through context.Context. Values stored here are automatically extracted
// and included in log entries.
//
// When an OTel span is active, trace_id and span_id come from its span
// context. When tracing is disabled, the middleware stores the extracted
// TraceContext here instead, so log correlation works either way. There is
// no shared mutable global: concurrent requests never observe each other's
// context.
package halo

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is an unexported type for context keys defined in this package.
// This prevents collisions with keys defined in other packages.
type contextKey string

const (
	traceContextKey contextKey = "trace_context"
	requestIDKey    contextKey = "request_id"
	userIDKey       contextKey = "user_id"
)

// ContextWithTraceContext returns a context carrying tc as the active trace
// context. The middleware calls this once per request; business code rarely
// needs it directly.
func ContextWithTraceContext(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey, tc)
}

// TraceContextFromContext resolves the active trace context: a valid OTel
// span context wins, then a stored TraceContext. The second return value is
// false when neither exists. Callers must treat that as "no correlation"
// and never fabricate ids of their own.
func TraceContextFromContext(ctx context.Context) (TraceContext, bool) {
	if ctx == nil {
		return TraceContext{}, false
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return TraceContext{
			TraceID:    sc.TraceID(),
			SpanID:     sc.SpanID(),
			Sampled:    sc.IsSampled(),
			TraceState: sc.TraceState(),
		}, true
	}

	if tc, ok := ctx.Value(traceContextKey).(TraceContext); ok && tc.Valid() {
		return tc, true
	}
	return TraceContext{}, false
}

// WithRequestID adds a request ID to the context.
// This ID will be automatically included in logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID adds a user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// UserIDFromContext extracts the user ID from context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// extractContextZapFields pulls trace/span IDs and custom values from context.
// Returns zap.Field slice directly for use in log methods.
// Lazily allocates the slice only when fields are found.
func extractContextZapFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}

	var fields []zap.Field

	if tc, ok := TraceContextFromContext(ctx); ok {
		fields = make([]zap.Field, 0, 4)
		fields = append(fields,
			zap.String("trace_id", tc.TraceID.String()),
			zap.String("span_id", tc.SpanID.String()),
		)
	}

	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		if fields == nil {
			fields = make([]zap.Field, 0, 4)
		}
		fields = append(fields, zap.String("request_id", reqID))
	}

	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		if fields == nil {
			fields = make([]zap.Field, 0, 4)
		}
		fields = append(fields, zap.String("user_id", userID))
	}

	return fields
}
