// Package bridge forwards per-request observations to an external tracing
// backend over its ingestion API.
//
// Observations are queued in a bounded in-memory buffer and shipped in
// batches. The bridge never blocks or fails a request: a full queue drops
// the oldest entry with a warning, and delivery failures are retried a
// bounded number of times before the batch is abandoned.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/halolabs/halo"
)

// Flush policies.
const (
	// FlushSync drains the queue at the end of every request.
	FlushSync = "sync"
	// FlushDeferred ships batches from a background loop on an interval.
	FlushDeferred = "deferred"
)

// Config configures the bridge.
type Config struct {
	// Enabled turns observation forwarding on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the backend base URL, e.g. "https://cloud.langfuse.com".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// PublicKey and SecretKey authenticate against the ingestion API.
	PublicKey string `yaml:"public_key" json:"public_key" env:"BRIDGE_PUBLIC_KEY"`
	SecretKey string `yaml:"secret_key" json:"secret_key" env:"BRIDGE_SECRET_KEY"`

	// FlushPolicy is "sync" or "deferred".
	// Default: "deferred"
	FlushPolicy string `yaml:"flush_policy" json:"flush_policy"`

	// QueueCapacity bounds the in-memory observation queue. When full the
	// oldest observation is dropped.
	// Default: 1024
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// FlushInterval is the background shipping interval for deferred mode.
	// Default: 5s
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`

	// MaxRetries bounds delivery attempts per batch.
	// Default: 3
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// Timeout is the per-request HTTP timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.FlushPolicy == "" {
		c.FlushPolicy = FlushDeferred
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 1024
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Observation is one unit of work reported to the backend, correlated to
// the trace it happened in.
type Observation struct {
	ID            string         `json:"id"`
	TraceID       string         `json:"traceId"`
	SpanID        string         `json:"spanId,omitempty"`
	Name          string         `json:"name"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	Attributes    map[string]any `json:"metadata,omitempty"`
	Level         string         `json:"level,omitempty"`
	StatusMessage string         `json:"statusMessage,omitempty"`
}

// Bridge batches observations and ships them to the configured backend.
// All methods are safe for concurrent use.
type Bridge struct {
	cfg    Config
	log    halo.Logger
	client *ingestClient

	mu    sync.Mutex
	queue []Observation

	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

// New creates a Bridge. A disabled config yields a bridge whose methods are
// all no-ops, so callers wire it unconditionally.
func New(cfg Config, log halo.Logger) *Bridge {
	cfg = cfg.withDefaults()

	b := &Bridge{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}

	if !cfg.Enabled {
		return b
	}

	b.client = newIngestClient(cfg)

	if cfg.FlushPolicy == FlushDeferred {
		b.wg.Add(1)
		go b.run()
	}

	return b
}

// RecordObservation enqueues one observation. The trace and span ids come
// from ctx; without an active trace context the observation is skipped,
// since the backend cannot correlate it. Never blocks.
func (b *Bridge) RecordObservation(ctx context.Context, name string, attrs map[string]any, start, end time.Time) {
	if !b.cfg.Enabled {
		return
	}

	tc, ok := halo.TraceContextFromContext(ctx)
	if !ok {
		return
	}

	obs := Observation{
		ID:         uuid.NewString(),
		TraceID:    tc.TraceID.String(),
		SpanID:     tc.SpanID.String(),
		Name:       name,
		StartTime:  start,
		EndTime:    end,
		Attributes: attrs,
	}

	b.mu.Lock()
	dropped := false
	if len(b.queue) >= b.cfg.QueueCapacity {
		copy(b.queue, b.queue[1:])
		b.queue = b.queue[:len(b.queue)-1]
		dropped = true
	}
	b.queue = append(b.queue, obs)
	b.mu.Unlock()

	if dropped && b.log != nil {
		b.log.Warn(ctx, "observation queue full, dropped oldest",
			halo.Int("queue_capacity", b.cfg.QueueCapacity))
	}
}

// Flush drains the queue now when the policy is sync. In deferred mode it is
// a no-op; the background loop owns shipping.
func (b *Bridge) Flush(ctx context.Context) error {
	if !b.cfg.Enabled || b.cfg.FlushPolicy != FlushSync {
		return nil
	}
	return b.drain(ctx)
}

// Shutdown stops the background loop and ships whatever is still queued.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if !b.cfg.Enabled {
		return nil
	}

	b.closed.Do(func() {
		close(b.done)
	})
	b.wg.Wait()

	return b.drain(ctx)
}

// run is the deferred-mode shipping loop. Single consumer; the queue mutex
// only guards the swap, never the network call.
func (b *Bridge) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.drain(context.Background()); err != nil && b.log != nil {
				b.log.Warn(context.Background(), "observation batch delivery failed",
					halo.Err(err))
			}
		case <-b.done:
			return
		}
	}
}

// drain takes the current queue contents and ships them as one batch.
// On failure the batch is abandoned; re-queueing would starve new
// observations behind a dead backend.
func (b *Bridge) drain(ctx context.Context) error {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	return b.client.postBatch(ctx, batch)
}

// QueueLen reports the number of queued observations.
func (b *Bridge) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
