package halo

import (
	"context"
	"sync"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Level != "info" {
		t.Errorf("level: %s", cfg.Level)
	}
	if cfg.TraceHeader != "X-Trace-Id" {
		t.Errorf("trace header: %s", cfg.TraceHeader)
	}
	if cfg.Preview.MaxBytes != 2048 {
		t.Errorf("preview max bytes: %d", cfg.Preview.MaxBytes)
	}
	if cfg.Tracing.Sampler != "always" {
		t.Errorf("sampler: %s", cfg.Tracing.Sampler)
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default ok", func(c *Config) {}, false},
		{"bad level", func(c *Config) { c.Level = "verbose" }, true},
		{"preview zero bound", func(c *Config) {
			c.Preview.Enabled = true
			c.Preview.MaxBytes = 0
		}, true},
		{"file without path", func(c *Config) { c.File.Enabled = true }, true},
		{"otel without endpoint", func(c *Config) { c.OTEL.Enabled = true }, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Builders(t *testing.T) {
	cfg := Default().
		WithService("api").
		WithLevel("debug").
		WithFile("/tmp/app.log").
		WithPreview(512, "/api/")

	if cfg.ServiceName != "api" || cfg.Level != "debug" {
		t.Error("builder fields not applied")
	}
	if !cfg.File.Enabled || cfg.File.Path != "/tmp/app.log" {
		t.Error("file builder not applied")
	}
	if !cfg.Preview.Enabled || cfg.Preview.MaxBytes != 512 {
		t.Error("preview builder not applied")
	}

	// Builders copy; the original stays untouched.
	if Default().ServiceName != "unknown" {
		t.Error("builders must not mutate shared state")
	}
}

func TestHalo_New(t *testing.T) {
	app, warnings, err := New(Default().WithService("test"))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	app.Info(context.Background(), "hello", F("k", "v"))

	if app.GetLevel() != "info" {
		t.Errorf("level: %s", app.GetLevel())
	}
}

func TestHalo_NewInvalidConfig(t *testing.T) {
	_, _, err := New(Default().WithLevel("verbose"))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHalo_TracerNoopWhenDisabled(t *testing.T) {
	app, _, err := New(Default())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	tracer := app.Tracer("component")
	ctx, span := tracer.Start(context.Background(), "op")
	defer span.End()

	if ctx == nil {
		t.Fatal("noop tracer must still return a context")
	}
	span.SetAttributes()
	span.RecordError(nil)
}

func TestHalo_TracerConcurrent(t *testing.T) {
	app, _, err := New(Default())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	// The one-time disabled-tracing notice must be safe under concurrent
	// first use.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracer := app.Tracer("component")
			_, span := tracer.Start(context.Background(), "op")
			span.End()
		}()
	}
	wg.Wait()
}

func TestGlobal(t *testing.T) {
	app, _, err := New(Default().WithService("global-test"))
	if err != nil {
		t.Fatal(err)
	}
	SetGlobal(app)
	defer SetGlobal(nil)

	ctx := context.Background()
	Info(ctx, "via global")
	Debug(ctx, "gated")
	Warn(ctx, "warned")

	if L() != app {
		t.Error("L must return the registered instance")
	}
}

func TestGlobal_FallbackWithoutSet(t *testing.T) {
	SetGlobal(nil)

	// Package helpers must work before SetGlobal.
	Info(context.Background(), "fallback")
	if err := Sync(); err != nil {
		t.Logf("sync: %v", err)
	}
}

func TestWarning_Error(t *testing.T) {
	w := Warning{Component: "tracing", Err: errStub("dial failed")}
	if w.Error() != "tracing: dial failed" {
		t.Errorf("got %q", w.Error())
	}
}
