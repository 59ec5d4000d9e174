package halo

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew_Default(t *testing.T) {
	ctx := context.Background()
	logger := newZapLogger(Default())
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer func() { _ = logger.Sync() }()

	// Should not panic
	logger.Info(ctx, "test message", F("key", "value"))
}

func TestNew_Development(t *testing.T) {
	ctx := context.Background()
	logger := newZapLogger(Development())
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
}

func TestLogger_With(t *testing.T) {
	log, buf := captureLogger(t)

	child := log.With(F("component", "billing"))
	child.Info(context.Background(), "child message")

	if !strings.Contains(buf.String(), `"component":"billing"`) {
		t.Errorf("attached field missing: %s", buf.String())
	}
}

func TestLogger_Named(t *testing.T) {
	ctx := context.Background()
	logger := newZapLogger(Default())
	defer func() { _ = logger.Sync() }()

	namedLogger := logger.Named("my-component")
	if namedLogger == nil {
		t.Fatal("expected non-nil named logger")
	}

	namedLogger.Info(ctx, "named message")
}

func TestLogger_ContextExtraction(t *testing.T) {
	log, buf := captureLogger(t)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUserID(ctx, "user-456")
	log.Info(ctx, "context message")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-123"`) {
		t.Errorf("request_id missing: %s", out)
	}
	if !strings.Contains(out, `"user_id":"user-456"`) {
		t.Errorf("user_id missing: %s", out)
	}
}

func TestLogger_LevelGate(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Console.Writer = &buf
	log := newZapLogger(cfg)

	log.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug must be gated at info level: %s", buf.String())
	}

	log.SetLevel("debug")
	log.Debug(context.Background(), "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug must pass after SetLevel")
	}
	if log.GetLevel() != "debug" {
		t.Errorf("GetLevel: %s", log.GetLevel())
	}
}

func TestLogger_ErrorField(t *testing.T) {
	log, buf := captureLogger(t)

	log.Error(context.Background(), "charge failed", errStub("card declined"))

	if !strings.Contains(buf.String(), `"error":"card declined"`) {
		t.Errorf("error field missing: %s", buf.String())
	}
}

func TestLogger_CriticalDoesNotExit(t *testing.T) {
	log, buf := captureLogger(t)

	// Critical maps to fatal level but must return.
	log.Critical(context.Background(), "database gone", errStub("conn refused"))

	if !strings.Contains(buf.String(), "database gone") {
		t.Errorf("critical record missing: %s", buf.String())
	}
}

func TestLogger_Shutdown(t *testing.T) {
	logger := newZapLogger(Default())
	if err := logger.Shutdown(context.Background()); err != nil {
		// stdout sync errors are environment noise on some platforms
		t.Logf("shutdown: %v", err)
	}
}

type errStub string

func (e errStub) Error() string { return string(e) }
