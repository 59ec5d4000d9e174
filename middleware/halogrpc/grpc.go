// Package halogrpc provides gRPC server and client instrumentation using
// OpenTelemetry.
//
// Server instrumentation using stats handler:
//
//	server := grpc.NewServer(
//	    grpc.StatsHandler(halogrpc.ServerHandler()),
//	)
//
// Client instrumentation using stats handler:
//
//	conn, err := grpc.Dial(addr,
//	    grpc.WithStatsHandler(halogrpc.ClientHandler()),
//	)
package halogrpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc/stats"
)

// ServerHandler returns a stats.Handler for gRPC server instrumentation.
// Inbound metadata is handled by the globally configured propagators, so the
// server span parents onto the caller's trace context.
func ServerHandler(opts ...Option) stats.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}

	otelOpts := []otelgrpc.Option{}
	if o.filter != nil {
		otelOpts = append(otelOpts, otelgrpc.WithInterceptorFilter(o.filter))
	}

	return otelgrpc.NewServerHandler(otelOpts...)
}

// ClientHandler returns a stats.Handler for gRPC client instrumentation.
// Use with grpc.WithStatsHandler() option when dialing.
func ClientHandler(opts ...Option) stats.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}

	otelOpts := []otelgrpc.Option{}
	if o.filter != nil {
		otelOpts = append(otelOpts, otelgrpc.WithInterceptorFilter(o.filter))
	}

	return otelgrpc.NewClientHandler(otelOpts...)
}

// --- Options ---

type options struct {
	filter otelgrpc.InterceptorFilter
}

func defaultOptions() *options {
	return &options{}
}

// Option configures gRPC instrumentation.
type Option interface {
	apply(*options)
}

type filterOption struct {
	filter otelgrpc.InterceptorFilter
}

func (f filterOption) apply(o *options) { o.filter = f.filter }

// WithFilter sets a filter function to exclude methods from tracing.
// Return false to skip tracing for the given request.
//
// Example:
//
//	halogrpc.ServerHandler(halogrpc.WithFilter(func(info *otelgrpc.InterceptorInfo) bool {
//	    return info.Method != "/grpc.health.v1.Health/Check"
//	}))
func WithFilter(filter otelgrpc.InterceptorFilter) Option {
	return filterOption{filter: filter}
}
