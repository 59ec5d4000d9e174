package halo

import (
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/propagation"
)

func carrierWith(traceparent string) propagation.HeaderCarrier {
	h := http.Header{}
	if traceparent != "" {
		h.Set("traceparent", traceparent)
	}
	return propagation.HeaderCarrier(h)
}

func TestPropagator_ExtractValid(t *testing.T) {
	p := NewPropagator()
	tc := p.Extract(carrierWith("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"))

	if tc.TraceID.String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id: got %s", tc.TraceID)
	}
	if tc.SpanID.String() != "00f067aa0ba902b7" {
		t.Errorf("span id: got %s", tc.SpanID)
	}
	if !tc.Sampled {
		t.Error("expected sampled flag set")
	}
}

func TestPropagator_ExtractNotSampled(t *testing.T) {
	p := NewPropagator()
	tc := p.Extract(carrierWith("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00"))

	if tc.Sampled {
		t.Error("expected sampled flag clear")
	}
}

func TestPropagator_ExtractMalformedMints(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"garbage", "not-a-traceparent"},
		{"wrong version", "01-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		{"short trace id", "00-4bf92f-00f067aa0ba902b7-01"},
		{"non hex trace id", "00-zzzz2f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		{"all zero trace id", "00-00000000000000000000000000000000-00f067aa0ba902b7-01"},
		{"all zero span id", "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01"},
		{"too many parts", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01-extra"},
	}

	p := NewPropagator()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tc := p.Extract(carrierWith(tt.header))
			if !tc.Valid() {
				t.Fatal("extraction must always yield a valid context")
			}
			if !tc.Sampled {
				t.Error("minted context should carry the default sampled verdict")
			}
		})
	}
}

func TestPropagator_MintUnique(t *testing.T) {
	p := NewPropagator()
	a := p.Mint()
	b := p.Mint()
	if a.TraceID == b.TraceID {
		t.Error("minted trace ids must differ")
	}
	if a.SpanID == b.SpanID {
		t.Error("minted span ids must differ")
	}
}

func TestPropagator_NewChild(t *testing.T) {
	p := NewPropagator()
	parent := p.Extract(carrierWith("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"))
	child := p.NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child must inherit the trace id")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child must get a fresh span id")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child parent span id must be the prior span id")
	}
	if child.Sampled != parent.Sampled {
		t.Error("child must inherit the sampling verdict")
	}
}

func TestPropagator_NewChildInvalidParent(t *testing.T) {
	p := NewPropagator()
	child := p.NewChild(TraceContext{})
	if !child.Valid() {
		t.Error("child of an invalid parent must be minted")
	}
}

func TestPropagator_InjectRoundTrip(t *testing.T) {
	p := NewPropagator()
	tc := p.Mint()

	h := http.Header{}
	p.Inject(tc, propagation.HeaderCarrier(h))

	got := h.Get("traceparent")
	parts := strings.Split(got, "-")
	if len(parts) != 4 || parts[0] != "00" {
		t.Fatalf("bad traceparent format: %q", got)
	}

	back := p.Extract(propagation.HeaderCarrier(h))
	if back.TraceID != tc.TraceID || back.SpanID != tc.SpanID || back.Sampled != tc.Sampled {
		t.Errorf("round trip mismatch: injected %+v extracted %+v", tc, back)
	}
}

func TestPropagator_InjectInvalidNoop(t *testing.T) {
	p := NewPropagator()
	h := http.Header{}
	p.Inject(TraceContext{}, propagation.HeaderCarrier(h))
	if h.Get("traceparent") != "" {
		t.Error("invalid context must not be injected")
	}
}

func TestPropagator_TracestatePassthrough(t *testing.T) {
	p := NewPropagator()
	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.Set("tracestate", "congo=t61rcWkgMzE,rojo=00f067aa0ba902b7")

	tc := p.Extract(propagation.HeaderCarrier(h))

	out := http.Header{}
	p.Inject(tc, propagation.HeaderCarrier(out))
	if got := out.Get("tracestate"); got == "" {
		t.Error("tracestate must be re-emitted on injection")
	}
}

func TestTraceContext_Traceparent(t *testing.T) {
	p := NewPropagator()
	tc := p.Extract(carrierWith("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"))

	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got := tc.Traceparent(); got != want {
		t.Errorf("got %q want %q", got, want)
	}

	tc.Sampled = false
	if got := tc.Traceparent(); !strings.HasSuffix(got, "-00") {
		t.Errorf("unsampled flags: got %q", got)
	}
}
