package halo

import (
	"context"
	"sync"
)

var (
	globalMu sync.RWMutex
	global   *Halo
)

// SetGlobal sets the global Halo instance.
func SetGlobal(h *Halo) {
	globalMu.Lock()
	global = h
	globalMu.Unlock()
}

// L returns the global Halo instance.
func L() *Halo {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		panic("halo: global not set, call SetGlobal first")
	}
	return g
}

func getGlobal() *Halo {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		return &Halo{logger: newZapLogger(Default()), propagator: NewPropagator()}
	}
	return g
}

// Debug logs at debug level using global logger.
func Debug(ctx context.Context, msg string, fields ...Field) {
	getGlobal().Debug(ctx, msg, fields...)
}

// Info logs at info level using global logger.
func Info(ctx context.Context, msg string, fields ...Field) {
	getGlobal().Info(ctx, msg, fields...)
}

// Warn logs at warn level using global logger.
func Warn(ctx context.Context, msg string, fields ...Field) {
	getGlobal().Warn(ctx, msg, fields...)
}

// Error logs at error level using global logger.
func Error(ctx context.Context, msg string, err error, fields ...Field) {
	getGlobal().Error(ctx, msg, err, fields...)
}

// Critical logs at fatal level using the global logger without exiting.
func Critical(ctx context.Context, msg string, err error, fields ...Field) {
	getGlobal().Critical(ctx, msg, err, fields...)
}

// GetTracer returns a named tracer from the global instance.
func GetTracer(name string) Tracer {
	return getGlobal().Tracer(name)
}

// Sync flushes the global logger.
func Sync() error {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g == nil {
		return nil
	}
	return g.Sync()
}

// Named returns a child logger from global.
func Named(name string) Logger {
	return getGlobal().Named(name)
}
