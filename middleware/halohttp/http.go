// Package halohttp provides HTTP server and client instrumentation with
// cross-service trace correlation.
//
// Server middleware extracts the inbound trace context, opens a server span,
// echoes the trace id on the response, and emits exactly one access record
// per request:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api", handler)
//	instrumented := halohttp.Handler(mux, "my-service",
//	    halohttp.WithLogger(app),
//	)
//	http.ListenAndServe(":8080", instrumented)
//
// Client instrumentation wraps an http.Client so outbound calls carry the
// active trace context:
//
//	client := halohttp.Client()
//	resp, err := client.Get("https://api.example.com")
package halohttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halolabs/halo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for middleware spans.
const tracerName = "github.com/halolabs/halo/middleware/halohttp"

// ObservationRecorder receives one observation per completed request.
// Implemented by bridge.Bridge; recording must never fail the request.
type ObservationRecorder interface {
	RecordObservation(ctx context.Context, name string, attrs map[string]any, start, end time.Time)
	Flush(ctx context.Context) error
}

// Handler wraps an http.Handler with trace correlation and access logging.
//
// Per request it:
//   - extracts the W3C trace context, minting one when absent or malformed
//   - starts a server span parented on the extracted context
//   - sets the trace id response header before the handler runs
//   - captures a bounded response body preview when configured
//   - emits exactly one access record when the handler returns, even on panic
//
// Panics are annotated on the span and re-raised; business error responses
// pass through untouched.
func Handler(next http.Handler, operation string, opts ...Option) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}

	prop := o.propagator
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.filter != nil && !o.filter(r) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rawParent := r.Header.Get(halo.TraceparentHeader)
		tc := prop.Extract(propagation.HeaderCarrier(r.Header))
		if o.logger != nil && rawParent != "" && !strings.HasPrefix(rawParent, "00-"+tc.TraceID.String()) {
			o.logger.Debug(r.Context(), "malformed traceparent, minted new trace context",
				halo.String("traceparent", rawParent))
		}

		ctx := r.Context()
		var span trace.Span
		ownSpan := false

		// An already-recording span means an outer layer owns this
		// request; reuse it instead of opening a second server span.
		if active := trace.SpanFromContext(ctx); active.SpanContext().IsValid() && active.IsRecording() {
			span = active
		} else {
			ownSpan = true
			ctx = trace.ContextWithRemoteSpanContext(ctx, tc.SpanContext())
			ctx, span = tracer.Start(ctx, operation,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.path", r.URL.Path),
				),
			)
		}
		ctx = halo.ContextWithTraceContext(ctx, tc)

		traceID := tc.TraceID.String()
		if sc := span.SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}

		// Header goes out before the handler so even streamed or failed
		// responses carry the trace id.
		w.Header().Set(o.traceHeader, traceID)

		rec := &responseRecorder{ResponseWriter: w}
		var reqCapture *halo.CaptureBuffer
		if o.preview.ShouldCapture(r.URL.Path) {
			rec.capture = halo.NewCaptureBuffer(o.preview.MaxBytes)

			// Request bodies get the same bounded side channel; the
			// handler still reads the full payload.
			if o.captureRequest && r.Body != nil && r.Body != http.NoBody {
				reqCapture = halo.NewCaptureBuffer(o.preview.MaxBytes)
				if body, err := reqCapture.Capture(r.Body); err == nil {
					r.Body = io.NopCloser(body)
				} else {
					reqCapture = nil
				}
			}
		}

		finalized := false
		finalize := func(panicked any) {
			if finalized {
				return
			}
			finalized = true
			o.finish(ctx, span, ownSpan, r, rec, reqCapture, operation, start, panicked)
		}

		defer func() {
			if p := recover(); p != nil {
				finalize(p)
				panic(p)
			}
			finalize(nil)
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// finish emits the span annotations, the access record and the bridge
// observation for one request. Runs exactly once, panic or not. Its own
// failures are swallowed after a degraded log line; finalization must never
// replace the real response or error.
func (o *options) finish(ctx context.Context, span trace.Span, ownSpan bool, r *http.Request, rec *responseRecorder, reqCapture *halo.CaptureBuffer, operation string, start time.Time, panicked any) {
	defer func() {
		if internal := recover(); internal != nil {
			if o.logger != nil {
				o.logger.Warn(ctx, "request finalization degraded",
					halo.String("panic", fmt.Sprint(internal)))
			}
			if ownSpan {
				span.End()
			}
		}
	}()

	end := time.Now()
	duration := end.Sub(start)
	status := rec.Status()

	if panicked != nil {
		status = http.StatusInternalServerError
		halo.AnnotateError(span, fmt.Errorf("panic: %v", panicked))
	}

	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Float64("duration_ms", float64(duration)/float64(time.Millisecond)),
		)
		if panicked == nil && status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}

	extra := map[string]any{
		"http_method":         r.Method,
		"http_path":           r.URL.Path,
		"http_status":         status,
		"duration_ms":         float64(duration) / float64(time.Millisecond),
		"user_agent":          r.UserAgent(),
		"response_size_bytes": rec.size,
	}
	if panicked != nil {
		extra["panic"] = fmt.Sprint(panicked)
	}

	if rec.capture != nil {
		preview := rec.capture.Finalize(rec.Header().Get("Content-Type"), o.preview.RedactKeys)
		extra["body_preview"] = preview.Body
		extra["body_preview_truncated"] = preview.Truncated
		extra["body_size_bytes"] = preview.Size
		if len(preview.RedactedKeys) > 0 {
			extra["body_preview_redacted_keys"] = preview.RedactedKeys
		}
	}

	if reqCapture != nil {
		preview := reqCapture.Finalize(r.Header.Get("Content-Type"), o.preview.RedactKeys)
		extra["request_body_preview"] = preview.Body
		extra["request_body_preview_truncated"] = preview.Truncated
	}

	level := "info"
	if status >= 500 {
		level = "error"
	}

	if o.logger != nil {
		halo.LogJSON(ctx, o.logger, operation, "request completed", level, extra)
	}

	if o.recorder != nil {
		o.recorder.RecordObservation(ctx, operation, extra, start, end)
		// Flush is policy-aware: a deferred-flush bridge treats this as
		// a hint, a sync one drains before the response is done.
		if err := o.recorder.Flush(ctx); err != nil && o.logger != nil {
			o.logger.Warn(ctx, "observation delivery failed", halo.Err(err))
		}
	}

	if ownSpan {
		span.End()
	}
}

// responseRecorder observes status and size, and tees the body into the
// capture buffer. The downstream write path is authoritative; capture
// happens only after the real write succeeded.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	size    int64
	capture *halo.CaptureBuffer
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.size += int64(n)
	if r.capture != nil && n > 0 {
		_, _ = r.capture.Write(p[:n])
	}
	return n, err
}

// Status returns the response status, defaulting to 200 like net/http does
// for handlers that never call WriteHeader.
func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Flush implements http.Flusher when the underlying writer does.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// --- Client instrumentation ---

// Client returns an HTTP client whose requests carry the active trace
// context and are instrumented with OpenTelemetry client spans.
func Client(opts ...Option) *http.Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}
	return &http.Client{Transport: newTransport(nil, o)}
}

// Transport returns an instrumented http.RoundTripper.
// Use this to instrument custom transports.
func Transport(base http.RoundTripper, opts ...Option) http.RoundTripper {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}
	return newTransport(base, o)
}

func newTransport(base http.RoundTripper, o *options) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &propagatingTransport{
		next:       otelhttp.NewTransport(base),
		propagator: o.propagator,
	}
}

// propagatingTransport injects a child trace context into every outbound
// request before dispatch, so the callee correlates to this trace even when
// no OTel span is active.
type propagatingTransport struct {
	next       http.RoundTripper
	propagator halo.Propagator
}

func (t *propagatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request must not be mutated.
	out := req.Clone(req.Context())

	if out.Header.Get(halo.TraceparentHeader) == "" {
		if tc, ok := halo.TraceContextFromContext(out.Context()); ok {
			child := t.propagator.NewChild(tc)
			t.propagator.Inject(child, propagation.HeaderCarrier(out.Header))
		}
	}

	return t.next.RoundTrip(out)
}

// --- Options ---

type options struct {
	logger         halo.Logger
	tracer         trace.Tracer
	propagator     halo.Propagator
	preview        halo.PreviewConfig
	captureRequest bool
	recorder       ObservationRecorder
	traceHeader    string
	filter         func(r *http.Request) bool
}

func defaultOptions() *options {
	return &options{
		propagator:  halo.NewPropagator(),
		traceHeader: "X-Trace-Id",
	}
}

// Option configures HTTP instrumentation.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the logger that receives access records.
// Without it the middleware still traces and propagates, but logs nothing.
func WithLogger(l halo.Logger) Option {
	return optionFunc(func(o *options) { o.logger = l })
}

// WithTracer overrides the tracer used for server spans.
func WithTracer(t trace.Tracer) Option {
	return optionFunc(func(o *options) { o.tracer = t })
}

// WithPropagator overrides the trace-context propagator.
func WithPropagator(p halo.Propagator) Option {
	return optionFunc(func(o *options) { o.propagator = p })
}

// WithPreview enables bounded response body preview capture.
func WithPreview(cfg halo.PreviewConfig) Option {
	return optionFunc(func(o *options) { o.preview = cfg })
}

// WithRequestPreview also captures a bounded preview of request bodies on
// paths eligible for response preview. The handler still sees the full body.
func WithRequestPreview() Option {
	return optionFunc(func(o *options) { o.captureRequest = true })
}

// WithRecorder forwards one observation per request to rec.
func WithRecorder(rec ObservationRecorder) Option {
	return optionFunc(func(o *options) { o.recorder = rec })
}

// WithTraceHeader overrides the response header carrying the trace id.
// Default: "X-Trace-Id".
func WithTraceHeader(name string) Option {
	return optionFunc(func(o *options) {
		if name != "" {
			o.traceHeader = name
		}
	})
}

// WithFilter sets a filter function to exclude requests from instrumentation.
// Return true to include the request, false to skip.
//
// Example:
//
//	halohttp.Handler(mux, "api", halohttp.WithFilter(func(r *http.Request) bool {
//	    return r.URL.Path != "/health"
//	}))
func WithFilter(filter func(r *http.Request) bool) Option {
	return optionFunc(func(o *options) { o.filter = filter })
}
