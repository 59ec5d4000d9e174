package halo

import "context"

// Logger is the primary logging interface.
// All methods are safe for concurrent use. Context is always the first
// parameter: trace_id and span_id are extracted from it automatically so
// every record emitted during a request carries its correlation fields.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(ctx context.Context, msg string, fields ...Field)

	// Info logs a message at info level.
	Info(ctx context.Context, msg string, fields ...Field)

	// Warn logs a message at warn level.
	Warn(ctx context.Context, msg string, fields ...Field)

	// Error logs a message at error level with an optional error.
	Error(ctx context.Context, msg string, err error, fields ...Field)

	// Critical logs a message at fatal level without terminating the
	// process. Halo never calls os.Exit on behalf of the application.
	Critical(ctx context.Context, msg string, err error, fields ...Field)

	// With returns a child logger with additional fields attached.
	With(fields ...Field) Logger

	// Named returns a named sub-logger.
	Named(name string) Logger

	// Sync flushes any buffered log entries.
	Sync() error

	// Shutdown flushes buffers and stops any export pipelines.
	Shutdown(ctx context.Context) error

	// SetLevel changes the log level at runtime.
	SetLevel(level string)

	// GetLevel returns the current log level as a string.
	GetLevel() string
}
