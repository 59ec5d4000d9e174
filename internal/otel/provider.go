package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config carries the OTLP log export settings, flattened from the public
// OTELConfig so this package has no import back into the root.
type Config struct {
	Enabled        bool
	Endpoint       string
	Protocol       string
	Insecure       bool
	Timeout        time.Duration
	Headers        map[string]string
	Attributes     map[string]string
	BatchSize      int
	ExportInterval time.Duration
}

// Provider owns the log export pipeline feeding the otelzap core. Log
// records flow through it with trace correlation already attached; the
// resource identifies which service emitted them.
type Provider struct {
	loggerProvider *sdklog.LoggerProvider
}

// LoggerProvider exposes the SDK provider for the otelzap bridge.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.loggerProvider
}

// Shutdown flushes buffered records and stops the pipeline. Nil-safe, so
// callers running without log export can call it unconditionally.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.loggerProvider == nil {
		return nil
	}
	return p.loggerProvider.Shutdown(ctx)
}

// Setup builds the batching log pipeline and installs it as the global
// logger provider. Returns (nil, nil) when export is off or no endpoint is
// configured, which downstream code treats as "console and file only".
func Setup(cfg Config, serviceName, version string) (*Provider, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	// resource.New instead of merging with resource.Default(): the default
	// resource pins a schema URL that can conflict with our semconv import.
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log resource: %w", err)
	}

	var exporter sdklog.Exporter
	switch cfg.Protocol {
	case "http":
		exporter, err = newHTTPLogExporter(ctx, cfg)
	default:
		exporter, err = newGRPCLogExporter(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 512
	}
	exportInterval := cfg.ExportInterval
	if exportInterval <= 0 {
		exportInterval = 5 * time.Second
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithMaxQueueSize(batchSize*2),
			sdklog.WithExportMaxBatchSize(batchSize),
			sdklog.WithExportInterval(exportInterval),
		)),
	)

	global.SetLoggerProvider(provider)

	return &Provider{loggerProvider: provider}, nil
}

func newGRPCLogExporter(ctx context.Context, cfg Config) (sdklog.Exporter, error) {
	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(cfg.Endpoint),
	}

	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
		opts = append(opts, otlploggrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append(opts, otlploggrpc.WithTimeout(timeout))

	return otlploggrpc.New(ctx, opts...)
}

func newHTTPLogExporter(ctx context.Context, cfg Config) (sdklog.Exporter, error) {
	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}

	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.Headers))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append(opts, otlploghttp.WithTimeout(timeout))

	return otlploghttp.New(ctx, opts...)
}
