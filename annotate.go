package halo

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnnotateError marks span as failed and records err on it: status becomes
// Error with the error's message, the error is recorded as a span event, and
// error_type, error_message and error_chain attributes are set. All writes
// are additive; attributes set before the failure survive.
//
// Safe to call with a nil error or a non-recording span; both are no-ops.
func AnnotateError(span trace.Span, err error) {
	annotateError(span, err, "")
}

// AnnotateErrorCode is AnnotateError plus a machine-readable error_code
// attribute for errors carrying a stable classification.
func AnnotateErrorCode(span trace.Span, err error, code string) {
	annotateError(span, err, code)
}

// AnnotateErrorContext annotates the span active in ctx, if any.
func AnnotateErrorContext(ctx context.Context, err error) {
	AnnotateError(trace.SpanFromContext(ctx), err)
}

func annotateError(span trace.Span, err error, code string) {
	if err == nil || span == nil || !span.IsRecording() {
		return
	}

	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)

	attrs := []attribute.KeyValue{
		attribute.String("error_type", fmt.Sprintf("%T", err)),
		attribute.String("error_message", err.Error()),
	}
	if code != "" {
		attrs = append(attrs, attribute.String("error_code", code))
	}
	if chain := errorChain(err); len(chain) > 1 {
		attrs = append(attrs, attribute.StringSlice("error_chain", chain))
	}
	span.SetAttributes(attrs...)
}

// errorChain walks Unwrap from the outermost error inward and returns each
// message in order. Bounded to guard against cyclic wrappers.
func errorChain(err error) []string {
	const maxDepth = 32

	chain := make([]string, 0, 4)
	for err != nil && len(chain) < maxDepth {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
