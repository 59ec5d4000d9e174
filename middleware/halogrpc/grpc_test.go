package halogrpc

import (
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
)

func TestServerHandler(t *testing.T) {
	handler := ServerHandler()
	if handler == nil {
		t.Fatal("expected non-nil server handler")
	}
}

func TestClientHandler(t *testing.T) {
	handler := ClientHandler()
	if handler == nil {
		t.Fatal("expected non-nil client handler")
	}
}

func TestServerHandler_WithFilter(t *testing.T) {
	handler := ServerHandler(WithFilter(func(info *otelgrpc.InterceptorInfo) bool {
		return info.Method != "/grpc.health.v1.Health/Check"
	}))
	if handler == nil {
		t.Fatal("expected non-nil server handler with filter")
	}
}

func TestClientHandler_WithFilter(t *testing.T) {
	handler := ClientHandler(WithFilter(func(info *otelgrpc.InterceptorInfo) bool {
		return true
	}))
	if handler == nil {
		t.Fatal("expected non-nil client handler with filter")
	}
}
