package halo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/halolabs/halo/internal/otel"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ctxSentinelKey carries the context.Context through zap fields so the
// otelzap bridge can stamp LogRecord.TraceID/SpanID. The filtering core
// strips it from console and file output.
const ctxSentinelKey = "ctx"

// noExitOnFatal suppresses zap's fatal-level process exit so Critical
// returns to the caller after the record is written.
type noExitOnFatal struct{}

func (noExitOnFatal) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}

// zapLogger implements Logger using Uber's Zap.
type zapLogger struct {
	zap          *zap.Logger
	config       Config
	atomicLvl    zap.AtomicLevel
	otelProvider *otel.Provider
}

// newZapLogger creates a new Logger from the provided configuration.
// Internal - use halo.New() instead.
func newZapLogger(cfg Config) Logger {
	return buildLogger(cfg, nil, nil)
}

// newZapLoggerWithOTEL creates a logger with OTLP log export enabled.
// Internal - use halo.New() instead.
func newZapLoggerWithOTEL(cfg Config) (Logger, error) {
	otelCfg := otel.Config{
		Enabled:        cfg.OTEL.Enabled,
		Endpoint:       cfg.OTEL.Endpoint,
		Protocol:       cfg.OTEL.Protocol,
		Insecure:       cfg.OTEL.Insecure,
		Timeout:        cfg.OTEL.Timeout,
		Headers:        cfg.OTEL.Headers,
		Attributes:     cfg.OTEL.Attributes,
		BatchSize:      cfg.OTEL.BatchSize,
		ExportInterval: cfg.OTEL.ExportInterval,
	}

	provider, err := otel.Setup(otelCfg, cfg.ServiceName, cfg.Version)
	if err != nil {
		return nil, err
	}

	var otelCore zapcore.Core
	if provider != nil && provider.LoggerProvider() != nil {
		otelCore = otelzap.NewCore(
			cfg.ServiceName,
			otelzap.WithLoggerProvider(provider.LoggerProvider()),
		)
	}

	return buildLogger(cfg, otelCore, provider), nil
}

// buildLogger constructs the zapLogger with all configured cores.
//
// Filtering strategy for clean trace correlation:
// - Console/File: filter the ctx sentinel (shows {}), keep trace_id/span_id strings
// - OTEL: filter trace_id/span_id strings (redundant, LogRecord has them), keep ctx
func buildLogger(cfg Config, otelCore zapcore.Core, otelProvider *otel.Provider) Logger {
	atomicLevel := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	cores := make([]zapcore.Core, 0, 4)

	if cfg.Console.Enabled {
		for _, c := range buildConsoleCores(cfg, atomicLevel) {
			cores = append(cores, newFilteringCore(c, ctxSentinelKey))
		}
	}

	if cfg.File.Enabled && cfg.File.Path != "" {
		if fileCore := buildFileCore(cfg, atomicLevel); fileCore != nil {
			cores = append(cores, newFilteringCore(fileCore, ctxSentinelKey))
		}
	}

	if otelCore != nil {
		cores = append(cores, newFilteringCore(otelCore, "trace_id", "span_id"))
	}

	var core zapcore.Core
	switch len(cores) {
	case 0:
		core = zapcore.NewNopCore()
	case 1:
		core = cores[0]
	default:
		core = zapcore.NewTee(cores...)
	}

	return &zapLogger{
		zap:          zap.New(core, buildZapOptions(cfg)...),
		config:       cfg,
		atomicLvl:    atomicLevel,
		otelProvider: otelProvider,
	}
}

// buildZapOptions creates common zap options from config.
func buildZapOptions(cfg Config) []zap.Option {
	opts := []zap.Option{
		zap.AddCallerSkip(1), // Skip the wrapper methods
		// Critical maps to fatal level but must not exit the process.
		// zap treats a WriteThenNoop override as absent and restores
		// WriteThenFatal, so a distinct no-op hook type is required.
		zap.WithFatalHook(noExitOnFatal{}),
	}

	if cfg.Development {
		opts = append(opts, zap.Development())
		opts = append(opts, zap.AddCaller())
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	if cfg.ServiceName != "" {
		opts = append(opts, zap.Fields(zap.String("application_name", cfg.ServiceName)))
	}
	if cfg.Version != "" {
		opts = append(opts, zap.Fields(zap.String("version", cfg.Version)))
	}

	return opts
}

// buildConsoleCores creates console output cores.
// Returns two cores when ErrorsToStderr is enabled (stdout for info, stderr
// for warn and above).
func buildConsoleCores(cfg Config, level zap.AtomicLevel) []zapcore.Core {
	encoder := buildConsoleEncoder(cfg)

	if cfg.Console.Writer != nil {
		return []zapcore.Core{
			zapcore.NewCore(encoder, zapcore.AddSync(cfg.Console.Writer), level),
		}
	}

	if cfg.Console.ErrorsToStderr {
		stdoutLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= level.Level() && lvl < zapcore.WarnLevel
		})
		stderrLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.WarnLevel
		})

		return []zapcore.Core{
			zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), stdoutLevel),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), stderrLevel),
		}
	}

	return []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
}

// utcTimeEncoder writes the canonical record timestamp: UTC, ISO-8601 with
// microseconds, explicit zone. Fixed-width and sortable so downstream
// systems can order records without parsing.
func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
}

// buildConsoleEncoder creates the appropriate encoder for console output.
func buildConsoleEncoder(cfg Config) zapcore.Encoder {
	if cfg.Console.Format == "pretty" || (cfg.Development && cfg.Console.Format == "") {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		if cfg.Console.Color {
			encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		} else {
			encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
			encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}

	return zapcore.NewJSONEncoder(recordEncoderConfig())
}

// recordEncoderConfig returns the canonical JSON record keys:
// time, level, detail, plus the structured fields added per entry.
func recordEncoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = utcTimeEncoder
	encoderCfg.MessageKey = "detail"
	encoderCfg.LevelKey = "level"
	encoderCfg.CallerKey = "caller"
	return encoderCfg
}

// buildFileCore creates the file output core with rotation.
func buildFileCore(cfg Config, level zap.AtomicLevel) zapcore.Core {
	writer := NewFileWriter(cfg.File)
	if writer == nil {
		return nil
	}

	// Always JSON for file output
	encoder := zapcore.NewJSONEncoder(recordEncoderConfig())
	return zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// --- Logger interface implementation ---

// prepareFields consolidates context extraction and field conversion.
func (l *zapLogger) prepareFields(ctx context.Context, fields []Field) []zap.Field {
	zapFields := toZapFields(fields)

	// context.Background() and context.TODO() never carry trace info
	if ctx != nil && ctx != context.Background() && ctx != context.TODO() {
		contextFields := extractContextZapFields(ctx)
		// ctx rides along for the otelzap bridge to extract LogRecord.TraceID
		contextFields = append(contextFields, zap.Reflect(ctxSentinelKey, ctx))
		zapFields = append(zapFields, contextFields...)
	}

	return zapFields
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	if !l.atomicLvl.Enabled(zapcore.DebugLevel) {
		return
	}
	l.zap.Debug(msg, l.prepareFields(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	if !l.atomicLvl.Enabled(zapcore.InfoLevel) {
		return
	}
	l.zap.Info(msg, l.prepareFields(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	if !l.atomicLvl.Enabled(zapcore.WarnLevel) {
		return
	}
	l.zap.Warn(msg, l.prepareFields(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	if !l.atomicLvl.Enabled(zapcore.ErrorLevel) {
		return
	}

	zapFields := l.prepareFields(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.zap.Error(msg, zapFields...)
}

// Critical logs at fatal level but does NOT exit the process; the logger is
// built with WriteThenNoop.
func (l *zapLogger) Critical(ctx context.Context, msg string, err error, fields ...Field) {
	zapFields := l.prepareFields(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.zap.Fatal(msg, zapFields...)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{
		zap:          l.zap.With(toZapFields(fields)...),
		config:       l.config,
		atomicLvl:    l.atomicLvl,
		otelProvider: l.otelProvider,
	}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{
		zap:          l.zap.Named(name),
		config:       l.config,
		atomicLvl:    l.atomicLvl,
		otelProvider: l.otelProvider,
	}
}

func (l *zapLogger) Sync() error {
	return l.zap.Sync()
}

func (l *zapLogger) Shutdown(ctx context.Context) error {
	var errs []error

	// Shutdown OTEL first (stop producing records to the backend)
	if l.otelProvider != nil {
		if err := l.otelProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel: %w", err))
		}
	}

	if err := l.zap.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("zap sync: %w", err))
	}

	return errors.Join(errs...)
}

// SetLevel changes the log level at runtime.
// Safe to call from multiple goroutines.
func (l *zapLogger) SetLevel(level string) {
	l.atomicLvl.SetLevel(parseLevel(level))
}

func (l *zapLogger) GetLevel() string {
	return l.atomicLvl.Level().String()
}

// --- Field conversion ---

func convertField(f Field) zap.Field {
	switch f.Type {
	case StringType:
		return zap.String(f.Key, f.StringVal)
	case Int64Type:
		return zap.Int64(f.Key, f.Integer)
	case Uint64Type:
		return zap.Uint64(f.Key, f.Interface.(uint64))
	case Float64Type:
		return zap.Float64(f.Key, f.Float)
	case BoolType:
		return zap.Bool(f.Key, f.Integer == 1)
	case ErrorType:
		if err, ok := f.Interface.(error); ok {
			return zap.Error(err)
		}
		return zap.Any(f.Key, f.Interface)
	default:
		return zap.Any(f.Key, f.Interface)
	}
}

func toZapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zapFields = append(zapFields, convertField(f))
	}
	return zapFields
}
