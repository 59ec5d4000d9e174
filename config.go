package halo

import (
	"fmt"
	"io"
	"time"
)

// Config holds the complete observability configuration.
// Construct it once at startup, validate eagerly with Validate, and pass it
// by reference into component constructors. Components never read the
// process environment themselves.
type Config struct {
	// Level sets the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" json:"level" env:"LOG_LEVEL"`

	// Development enables development mode with:
	// - Pretty console output by default
	// - Caller information in logs
	// - Stack traces on error
	Development bool `yaml:"development" json:"development" env:"LOG_DEVELOPMENT"`

	// ServiceName identifies this service; it is emitted on every log
	// record as application_name and reported to OTLP as service.name.
	// Default: "unknown"
	ServiceName string `yaml:"service_name" json:"service_name" env:"SERVICE_NAME"`

	// Version is the application version, included in logs.
	Version string `yaml:"version" json:"version" env:"SERVICE_VERSION"`

	// TraceHeader is the response header that carries the request's trace
	// id back to the caller.
	// Default: "X-Trace-Id"
	TraceHeader string `yaml:"trace_header" json:"trace_header"`

	// Console output configuration.
	Console ConsoleConfig `yaml:"console" json:"console"`

	// File output configuration (with rotation).
	File FileConfig `yaml:"file" json:"file"`

	// OTEL (OpenTelemetry) log exporter configuration.
	OTEL OTELConfig `yaml:"otel" json:"otel"`

	// Tracing configures the OTLP trace exporter and sampler.
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`

	// Preview configures bounded, redacted response-body preview capture.
	Preview PreviewConfig `yaml:"preview" json:"preview"`
}

// ConsoleConfig configures console (stdout/stderr) output.
type ConsoleConfig struct {
	// Enabled controls whether console output is active.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Format: "json" for structured JSON, "pretty" for human-readable.
	// Default: "json" (production), "pretty" (development)
	Format string `yaml:"format" json:"format"`

	// Color enables ANSI colors in pretty format.
	Color bool `yaml:"color" json:"color"`

	// ErrorsToStderr sends warn/error to stderr, others to stdout.
	// Default: true
	ErrorsToStderr bool `yaml:"errors_to_stderr" json:"errors_to_stderr"`

	// Writer overrides the console destination. When set, all levels go to
	// this writer and ErrorsToStderr is ignored. Intended for tests.
	Writer io.Writer `yaml:"-" json:"-"`
}

// FileConfig configures file output with rotation.
type FileConfig struct {
	// Enabled controls whether file output is active.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the log file path.
	Path string `yaml:"path" json:"path"`

	// MaxSizeMB is the maximum size in MB before rotation.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxAgeDays is the maximum age in days to retain old logs.
	// Default: 7
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`

	// MaxBackups is the maximum number of old log files to keep.
	// Default: 5
	MaxBackups int `yaml:"max_backups" json:"max_backups"`

	// Compress enables gzip compression of rotated log files.
	Compress bool `yaml:"compress" json:"compress"`
}

// OTELConfig configures OpenTelemetry log export.
type OTELConfig struct {
	// Enabled controls whether OTLP log export is active.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Protocol: "grpc" or "http". gRPC is recommended for performance.
	// Default: "grpc"
	Protocol string `yaml:"protocol" json:"protocol"`

	// Endpoint is the OTLP collector endpoint.
	// Examples: "localhost:4317" (gRPC), "localhost:4318" (HTTP)
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Insecure disables TLS for the connection.
	Insecure bool `yaml:"insecure" json:"insecure"`

	// Headers are additional headers to send (e.g., auth tokens).
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// BatchSize is the number of records per export batch.
	// Default: 512
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// ExportInterval is how often to export batched records.
	// Default: 5s
	ExportInterval time.Duration `yaml:"export_interval" json:"export_interval"`

	// Attributes are additional resource attributes for OTEL.
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	// Enabled controls whether span export is active. When disabled,
	// Tracer() returns a no-op tracer and requests still get correlated
	// trace ids through the propagator alone.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP collector endpoint. Falls back to
	// OTEL.Endpoint when empty.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Protocol: "grpc" or "http".
	Protocol string `yaml:"protocol" json:"protocol"`

	// Insecure disables TLS for the connection.
	Insecure bool `yaml:"insecure" json:"insecure"`

	// Sampler selects the sampling policy: "always", "never", "ratio:0.1".
	// The sampling verdict is passed through; halo does not implement its
	// own sampling algorithm.
	Sampler string `yaml:"sampler" json:"sampler"`

	// BatchSize is the number of spans per export batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// ExportInterval is how often to export batched spans.
	ExportInterval time.Duration `yaml:"export_interval" json:"export_interval"`

	// Timeout is the export timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Headers are additional headers to send (e.g., auth tokens).
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Attributes are additional resource attributes.
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

// PreviewConfig configures response-body preview capture.
type PreviewConfig struct {
	// Enabled turns preview capture on.
	Enabled bool `yaml:"enabled" json:"enabled" env:"ENABLE_RESPONSE_BODY_PREVIEW"`

	// MaxBytes bounds the captured preview. Bodies larger than this are
	// truncated at exactly MaxBytes; the remainder is never buffered.
	// Default: 2048
	MaxBytes int `yaml:"max_bytes" json:"max_bytes" env:"RESPONSE_BODY_PREVIEW_MAX_BYTES"`

	// Paths is the allow-list of path patterns (exact or prefix match).
	// Empty means every path when Enabled is true.
	Paths []string `yaml:"paths" json:"paths"`

	// RedactKeys are field-name matchers whose values are masked in
	// structured previews. Empty means DefaultRedactKeys.
	RedactKeys []string `yaml:"redact_keys" json:"redact_keys"`
}

// Default returns a Config with sensible production defaults.
func Default() Config {
	return Config{
		Level:       "info",
		ServiceName: "unknown",
		TraceHeader: "X-Trace-Id",
		Console: ConsoleConfig{
			Enabled:        true,
			Format:         "json",
			Color:          true,
			ErrorsToStderr: true,
		},
		File: FileConfig{
			MaxSizeMB:  100,
			MaxAgeDays: 7,
			MaxBackups: 5,
			Compress:   true,
		},
		OTEL: OTELConfig{
			Protocol:       "grpc",
			Timeout:        10 * time.Second,
			BatchSize:      512,
			ExportInterval: 5 * time.Second,
		},
		Tracing: TracingConfig{
			Protocol:       "grpc",
			Sampler:        "always",
			BatchSize:      512,
			ExportInterval: 5 * time.Second,
			Timeout:        10 * time.Second,
		},
		Preview: PreviewConfig{
			MaxBytes: 2048,
		},
	}
}

// Development returns a Config optimized for development.
func Development() Config {
	cfg := Default()
	cfg.Level = "debug"
	cfg.Development = true
	cfg.Console.Format = "pretty"
	return cfg
}

// Validate checks the configuration eagerly so misconfiguration surfaces at
// startup rather than mid-request.
func (c Config) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("halo: unknown log level %q", c.Level)
	}
	if c.Preview.Enabled && c.Preview.MaxBytes <= 0 {
		return fmt.Errorf("halo: preview.max_bytes must be > 0, got %d", c.Preview.MaxBytes)
	}
	if c.File.Enabled && c.File.Path == "" {
		return fmt.Errorf("halo: file output enabled without a path")
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("halo: otel log export enabled without an endpoint")
	}
	return nil
}

// WithLevel returns a copy of the config with the specified level.
func (c Config) WithLevel(level string) Config {
	c.Level = level
	return c
}

// WithService returns a copy of the config with the specified service name.
func (c Config) WithService(name string) Config {
	c.ServiceName = name
	return c
}

// WithOTEL returns a copy of the config with OTLP log export enabled.
func (c Config) WithOTEL(endpoint string) Config {
	c.OTEL.Enabled = true
	c.OTEL.Endpoint = endpoint
	return c
}

// WithTracing returns a copy of the config with span export enabled.
func (c Config) WithTracing(endpoint string) Config {
	c.Tracing.Enabled = true
	c.Tracing.Endpoint = endpoint
	return c
}

// WithFile returns a copy of the config with file logging enabled.
func (c Config) WithFile(path string) Config {
	c.File.Enabled = true
	c.File.Path = path
	return c
}

// WithPreview returns a copy of the config with preview capture enabled for
// the given paths.
func (c Config) WithPreview(maxBytes int, paths ...string) Config {
	c.Preview.Enabled = true
	c.Preview.MaxBytes = maxBytes
	c.Preview.Paths = paths
	return c
}
