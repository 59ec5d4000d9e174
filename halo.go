package halo

import (
	"context"
	"fmt"
	"log"
	"sync"

	internalotel "github.com/halolabs/halo/internal/otel"
)

// Halo is the unified observability instance providing logging and tracing.
// It implements the Logger interface directly, so you can use it for logging.
// It also provides access to Tracer for distributed tracing and a Propagator
// for cross-service trace correlation.
//
// Example:
//
//	app, warnings, err := halo.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown(context.Background())
//
//	// Logging (Halo implements Logger)
//	app.Info(ctx, "message", halo.F("key", "value"))
//
//	// Tracing
//	tracer := app.Tracer("myapp.component")
//	ctx, span := tracer.Start(ctx, "Operation")
//	defer span.End()
//
//	// Global usage (same API)
//	halo.SetGlobal(app)
//	halo.Info(ctx, "works from anywhere")
type Halo struct {
	logger         Logger
	config         Config
	propagator     Propagator
	tracerProvider *internalotel.TracerProvider
	tracingEnabled bool
}

// Warning represents a non-fatal initialization issue.
// Halo returns warnings instead of failing when optional components
// (like OTEL or tracing) cannot be initialized.
type Warning struct {
	Component string // "otel", "tracing"
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Component, w.Err)
}

// New creates a new Halo instance with the given configuration.
// This is the single entry point for creating halo observability.
//
// Returns:
//   - *Halo: Always returns a working instance (may use fallbacks)
//   - []Warning: Non-fatal issues (e.g., OTEL connection failed, tracing disabled)
//   - error: Fatal configuration errors from Config.Validate
func New(cfg Config) (*Halo, []Warning, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning

	h := &Halo{
		config:     cfg,
		propagator: NewPropagator(),
	}

	// Create logger
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		logger, err := newZapLoggerWithOTEL(cfg)
		if err != nil {
			warnings = append(warnings, Warning{
				Component: "otel",
				Err:       fmt.Errorf("failed to init OTEL logger: %w (using basic logger)", err),
			})
			h.logger = newZapLogger(cfg)
		} else {
			h.logger = logger
		}
	} else {
		h.logger = newZapLogger(cfg)
	}

	// Setup tracing
	if cfg.Tracing.Enabled {
		endpoint := cfg.Tracing.Endpoint
		if endpoint == "" {
			endpoint = cfg.OTEL.Endpoint
		}

		protocol := cfg.Tracing.Protocol
		if protocol == "" {
			protocol = cfg.OTEL.Protocol
		}

		insecure := cfg.Tracing.Insecure
		if !insecure && cfg.OTEL.Insecure {
			insecure = true
		}

		tracerCfg := internalotel.TracerConfig{
			Enabled:        true,
			Endpoint:       endpoint,
			Protocol:       protocol,
			Insecure:       insecure,
			Sampler:        cfg.Tracing.Sampler,
			BatchSize:      cfg.Tracing.BatchSize,
			ExportInterval: cfg.Tracing.ExportInterval,
			Timeout:        cfg.Tracing.Timeout,
			Headers:        cfg.Tracing.Headers,
			Attributes:     cfg.Tracing.Attributes,
		}

		tp, err := internalotel.SetupTracer(tracerCfg, cfg.ServiceName, cfg.Version)
		if err != nil {
			warnings = append(warnings, Warning{
				Component: "tracing",
				Err:       fmt.Errorf("failed to init tracing: %w (tracing disabled)", err),
			})
		} else if tp != nil {
			h.tracerProvider = tp
			h.tracingEnabled = true
		}
	}

	return h, warnings, nil
}

// Config returns the configuration the instance was built with.
func (h *Halo) Config() Config {
	return h.config
}

// Propagator returns the trace-context propagator.
func (h *Halo) Propagator() Propagator {
	return h.propagator
}

// --- Logger interface implementation ---

func (h *Halo) Debug(ctx context.Context, msg string, fields ...Field) {
	h.logger.Debug(ctx, msg, fields...)
}

func (h *Halo) Info(ctx context.Context, msg string, fields ...Field) {
	h.logger.Info(ctx, msg, fields...)
}

func (h *Halo) Warn(ctx context.Context, msg string, fields ...Field) {
	h.logger.Warn(ctx, msg, fields...)
}

func (h *Halo) Error(ctx context.Context, msg string, err error, fields ...Field) {
	h.logger.Error(ctx, msg, err, fields...)
}

func (h *Halo) Critical(ctx context.Context, msg string, err error, fields ...Field) {
	h.logger.Critical(ctx, msg, err, fields...)
}

func (h *Halo) With(fields ...Field) Logger {
	return h.logger.With(fields...)
}

func (h *Halo) Named(name string) Logger {
	return h.logger.Named(name)
}

func (h *Halo) Sync() error {
	return h.logger.Sync()
}

func (h *Halo) SetLevel(level string) {
	h.logger.SetLevel(level)
}

func (h *Halo) GetLevel() string {
	return h.logger.GetLevel()
}

// --- Tracer access ---

var tracingDisabledOnce sync.Once

// Tracer returns a named tracer for creating spans.
// If tracing is not enabled, returns a no-op tracer (logs warning once).
func (h *Halo) Tracer(name string) Tracer {
	if !h.tracingEnabled || h.tracerProvider == nil {
		tracingDisabledOnce.Do(func() {
			log.Println("[halo] Tracing disabled: Tracer() returning no-op. Enable via Config.Tracing.Enabled")
		})
		return noopTracer{}
	}
	return newOTELTracer(name)
}

// --- Lifecycle ---

// Shutdown gracefully shuts down logging and tracing.
func (h *Halo) Shutdown(ctx context.Context) error {
	var firstErr error

	if h.tracerProvider != nil {
		if err := h.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}

	if h.logger != nil {
		if err := h.logger.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
