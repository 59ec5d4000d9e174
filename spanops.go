package halo

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOps provides a fluent API for annotating an active span.
//
// Usage:
//
//	Ops(span).
//	    Attrs(attribute.String("dependency.name", "billing")).
//	    DurationMs(elapsed).
//	    OK()
//
// Every method is a no-op on a nil or non-recording span, so callers never
// guard the tracing-disabled case themselves.
type SpanOps struct {
	span trace.Span
}

// Ops wraps span for fluent annotation.
func Ops(span trace.Span) *SpanOps {
	return &SpanOps{span: span}
}

func (o *SpanOps) recording() bool {
	return o.span != nil && o.span.IsRecording()
}

// Attrs sets attributes on the span.
func (o *SpanOps) Attrs(attrs ...Attr) *SpanOps {
	if o.recording() && len(attrs) > 0 {
		o.span.SetAttributes(attrs...)
	}
	return o
}

// DurationMs records the elapsed wall time as duration_ms.
func (o *SpanOps) DurationMs(d time.Duration) *SpanOps {
	if o.recording() {
		o.span.SetAttributes(attribute.Float64("duration_ms", float64(d)/float64(time.Millisecond)))
	}
	return o
}

// Event adds a named event to the span.
func (o *SpanOps) Event(name string, attrs ...Attr) *SpanOps {
	if o.recording() {
		o.span.AddEvent(name, trace.WithAttributes(attrs...))
	}
	return o
}

// OK marks the span successful.
func (o *SpanOps) OK() *SpanOps {
	if o.recording() {
		o.span.SetStatus(codes.Ok, "")
	}
	return o
}

// Error marks the span failed and records err with its cause chain.
func (o *SpanOps) Error(err error) *SpanOps {
	AnnotateError(o.span, err)
	return o
}

// ErrorCode is Error with a machine-readable classification code.
func (o *SpanOps) ErrorCode(err error, code string) *SpanOps {
	AnnotateErrorCode(o.span, err, code)
	return o
}

// DependencyHTTPAttrs describes an outbound HTTP dependency call for span
// annotation: the dependency kind, a logical name and the target host.
func DependencyHTTPAttrs(name, target string, d time.Duration) []Attr {
	return []Attr{
		attribute.String("dependency.type", "http"),
		attribute.String("dependency.name", name),
		attribute.String("dependency.website", target),
		attribute.Float64("dependency.duration_ms", float64(d) / float64(time.Millisecond)),
	}
}
