package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ingestionPath is the backend's batch ingestion endpoint.
const ingestionPath = "/api/public/ingestion"

// ingestEvent wraps one observation in the backend's event envelope.
type ingestEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Body      Observation `json:"body"`
}

type ingestBatch struct {
	Batch []ingestEvent `json:"batch"`
}

// ingestClient posts observation batches with bounded retry.
type ingestClient struct {
	http       *resty.Client
	maxRetries int
}

func newIngestClient(cfg Config) *ingestClient {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetBasicAuth(cfg.PublicKey, cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &ingestClient{
		http:       client,
		maxRetries: cfg.MaxRetries,
	}
}

// postBatch ships one batch, retrying transient failures with exponential
// backoff up to the configured attempt bound.
func (c *ingestClient) postBatch(ctx context.Context, batch []Observation) error {
	events := make([]ingestEvent, 0, len(batch))
	now := time.Now().UTC()
	for _, obs := range batch {
		events = append(events, ingestEvent{
			ID:        uuid.NewString(),
			Type:      "observation-create",
			Timestamp: now,
			Body:      obs,
		})
	}

	operation := func() (struct{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(ingestBatch{Batch: events}).
			Post(ingestionPath)
		if err != nil {
			return struct{}{}, err
		}
		if resp.IsError() {
			// 4xx means the payload or credentials are wrong; retrying
			// cannot help.
			if resp.StatusCode() < 500 {
				return struct{}{}, backoff.Permanent(
					fmt.Errorf("ingestion rejected: %s", resp.Status()))
			}
			return struct{}{}, fmt.Errorf("ingestion failed: %s", resp.Status())
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)),
	)
	return err
}
