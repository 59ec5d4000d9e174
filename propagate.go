package halo

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Header names of the W3C trace-context carrier.
const (
	TraceparentHeader = "traceparent"
	TracestateHeader  = "tracestate"
)

// supportedVersion is the only traceparent version halo interprets.
// Unknown versions degrade to minting, like every other parse failure.
const supportedVersion = "00"

// TraceContext is an immutable trace-correlation value for one request or
// span: a 128-bit trace id shared across the whole trace, a 64-bit span id
// unique to this span, the parent span id when one exists, and the sampling
// verdict passed through from the caller. TraceState is carried opaquely
// and re-emitted on injection, never interpreted.
type TraceContext struct {
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Sampled      bool
	TraceState   trace.TraceState
}

// Valid reports whether both ids are non-zero.
func (tc TraceContext) Valid() bool {
	return tc.TraceID.IsValid() && tc.SpanID.IsValid()
}

// Traceparent renders the context in W3C header form.
func (tc TraceContext) Traceparent() string {
	flags := "00"
	if tc.Sampled {
		flags = "01"
	}
	return fmt.Sprintf("%s-%s-%s-%s", supportedVersion, tc.TraceID, tc.SpanID, flags)
}

// SpanContext converts to an OpenTelemetry remote span context, suitable for
// use as the parent of a server span.
func (tc TraceContext) SpanContext() trace.SpanContext {
	var flags trace.TraceFlags
	if tc.Sampled {
		flags = trace.FlagsSampled
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tc.TraceID,
		SpanID:     tc.SpanID,
		TraceFlags: flags,
		TraceState: tc.TraceState,
		Remote:     true,
	})
}

// Propagator extracts trace contexts from inbound carriers and injects them
// into outbound ones. The zero value is usable; DefaultSampled controls the
// sampling verdict applied to freshly minted contexts.
//
// Extract never fails: a missing header, a malformed field or an all-zero id
// degrades to a newly minted context so the caller always has a non-zero
// trace id to correlate on.
type Propagator struct {
	// DefaultSampled is the sampling verdict for minted contexts.
	DefaultSampled bool
}

// NewPropagator returns a Propagator that samples minted contexts.
func NewPropagator() Propagator {
	return Propagator{DefaultSampled: true}
}

// Extract parses the traceparent header from the carrier. On any validation
// failure it mints a fresh context instead of returning an error.
func (p Propagator) Extract(carrier propagation.TextMapCarrier) TraceContext {
	tc, ok := parseTraceparent(carrier.Get(TraceparentHeader))
	if !ok {
		return p.Mint()
	}
	if ts, err := trace.ParseTraceState(carrier.Get(TracestateHeader)); err == nil {
		tc.TraceState = ts
	}
	return tc
}

// Inject encodes the context into the carrier in W3C header form. It must
// run before an outbound call is dispatched so the callee can correlate.
func (p Propagator) Inject(tc TraceContext, carrier propagation.TextMapCarrier) {
	if !tc.Valid() {
		return
	}
	carrier.Set(TraceparentHeader, tc.Traceparent())
	if ts := tc.TraceState.String(); ts != "" {
		carrier.Set(TracestateHeader, ts)
	}
}

// NewChild returns a context for a new span within the same trace: the trace
// id is inherited, the parent span id becomes the prior span id, and a fresh
// random span id is generated.
func (p Propagator) NewChild(tc TraceContext) TraceContext {
	if !tc.Valid() {
		return p.Mint()
	}
	return TraceContext{
		TraceID:      tc.TraceID,
		SpanID:       newSpanID(),
		ParentSpanID: tc.SpanID,
		Sampled:      tc.Sampled,
		TraceState:   tc.TraceState,
	}
}

// Mint creates a fresh root context with random non-zero ids and the default
// sampling verdict.
func (p Propagator) Mint() TraceContext {
	return TraceContext{
		TraceID: newTraceID(),
		SpanID:  newSpanID(),
		Sampled: p.DefaultSampled,
	}
}

func parseTraceparent(header string) (TraceContext, bool) {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 {
		return TraceContext{}, false
	}
	if parts[0] != supportedVersion {
		return TraceContext{}, false
	}

	traceID, err := trace.TraceIDFromHex(parts[1])
	if err != nil || !traceID.IsValid() {
		return TraceContext{}, false
	}
	spanID, err := trace.SpanIDFromHex(parts[2])
	if err != nil || !spanID.IsValid() {
		return TraceContext{}, false
	}
	flags, err := hex.DecodeString(parts[3])
	if err != nil || len(flags) != 1 {
		return TraceContext{}, false
	}

	return TraceContext{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: flags[0]&0x01 == 0x01,
	}, true
}

// --- ID generation ---

// Ids come straight from crypto/rand, retried until non-zero. An all-zero id
// is invalid on the wire, and rand.Read only fails if the OS entropy source
// is broken, in which case we still must not emit a zero id.
func newTraceID() trace.TraceID {
	var id trace.TraceID
	for !id.IsValid() {
		if _, err := rand.Read(id[:]); err != nil {
			binary.BigEndian.PutUint64(id[8:], uint64(time.Now().UnixNano()))
		}
	}
	return id
}

func newSpanID() trace.SpanID {
	var id trace.SpanID
	for !id.IsValid() {
		if _, err := rand.Read(id[:]); err != nil {
			binary.BigEndian.PutUint64(id[:], uint64(time.Now().UnixNano()))
		}
	}
	return id
}
