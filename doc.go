// Package halo provides cross-service trace correlation for structured
// application logs.
//
// Halo unifies structured logging (Zap), W3C trace-context propagation and
// distributed tracing (OpenTelemetry) behind a minimal, context-first API,
// and ships an HTTP access-observability middleware that ties them together
// for the lifetime of a request.
//
// # Guarantees
//
//   - Failure Isolation: observability malfunctions never alter or suppress
//     the business response; they degrade to log entries.
//   - Extraction Never Fails: a malformed or missing traceparent header
//     degrades to a freshly minted trace context, never an error.
//   - Bounded Memory: response-body previews never buffer more than the
//     configured byte limit, regardless of response size.
//   - Concurrency: all Logger and Tracer APIs are safe for concurrent use;
//     each request owns its own trace context.
//   - Lifecycle: Shutdown(ctx) flushes all buffers on a best-effort basis.
//
// # Architecture
//
//   - Logs: synchronous, structured, trace-correlated JSON records.
//   - Traces: asynchronous, sampled, batched via OTLP.
//   - Propagation: W3C traceparent/tracestate in, traceparent out, and the
//     X-Trace-Id response header for caller-side correlation.
//   - Bridge: completed operations mapped onto an external ingestion API,
//     flushed per-request or on a background schedule.
//
// Halo is designed for long-running services. It is not a metrics SDK or a
// web framework.
package halo
