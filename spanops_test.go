package halo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestSpanOps_Fluent(t *testing.T) {
	sr, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "dependency-call")

	Ops(span).
		Attrs(attribute.String("dependency.name", "billing")).
		DurationMs(1500 * time.Millisecond).
		Event("retry", attribute.Int("attempt", 2)).
		OK()
	span.End()

	stub := endedStub(t, sr)
	if stub.Status.Code != codes.Ok {
		t.Errorf("status: %v", stub.Status.Code)
	}
	if v, ok := attrValue(stub, "dependency.name"); !ok || v.AsString() != "billing" {
		t.Errorf("dependency.name: %v", v)
	}
	if v, ok := attrValue(stub, "duration_ms"); !ok || v.AsFloat64() != 1500 {
		t.Errorf("duration_ms: %v", v)
	}
	if len(stub.Events) != 1 || stub.Events[0].Name != "retry" {
		t.Errorf("events: %v", stub.Events)
	}
}

func TestSpanOps_Error(t *testing.T) {
	sr, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	Ops(span).Error(errors.New("timeout"))
	span.End()

	stub := endedStub(t, sr)
	if stub.Status.Code != codes.Error {
		t.Errorf("status: %v", stub.Status.Code)
	}
}

func TestSpanOps_NilSpanSafe(t *testing.T) {
	Ops(nil).
		Attrs(attribute.String("k", "v")).
		DurationMs(time.Second).
		Error(errors.New("x")).
		OK()
}

func TestDependencyHTTPAttrs(t *testing.T) {
	attrs := DependencyHTTPAttrs("payments", "api.stripe.com", 250*time.Millisecond)

	want := map[string]any{
		"dependency.type":        "http",
		"dependency.name":        "payments",
		"dependency.website":     "api.stripe.com",
		"dependency.duration_ms": 250.0,
	}
	if len(attrs) != len(want) {
		t.Fatalf("got %d attrs", len(attrs))
	}
	for _, kv := range attrs {
		switch v := want[string(kv.Key)].(type) {
		case string:
			if kv.Value.AsString() != v {
				t.Errorf("%s: %v", kv.Key, kv.Value)
			}
		case float64:
			if kv.Value.AsFloat64() != v {
				t.Errorf("%s: %v", kv.Key, kv.Value)
			}
		default:
			t.Errorf("unexpected key %s", kv.Key)
		}
	}
}
