package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"oza-scraper/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const DefaultPushBatchSize = 200

// Pusher sends prepared detail rows to the downstream automation
// webhook in bounded batches. Unlike the crawl, a push failure is
// fatal: a non-2xx acknowledgment aborts the remaining batches.
type Pusher struct {
	Http      *resty.Client
	URL       string
	APIKey    string
	BatchSize int
}

type pushPayload struct {
	APIKey string              `json:"apiKey"`
	Rows   []PreparedDetailRow `json:"rows"`
}

func NewPusher(webhookURL, apiKey string) *Pusher {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "services/attendance/push")

	return &Pusher{
		Http:      client,
		URL:       webhookURL,
		APIKey:    apiKey,
		BatchSize: DefaultPushBatchSize,
	}
}

func (p *Pusher) Push(ctx context.Context, rows []PreparedDetailRow) error {
	if len(rows) == 0 {
		slog.Info("nothing to push, no rows with teacher attendance qualified")
		return nil
	}

	size := p.BatchSize
	if size <= 0 {
		size = DefaultPushBatchSize
	}
	total := (len(rows) + size - 1) / size

	for i := 0; i < total; i++ {
		batch := rows[i*size : min((i+1)*size, len(rows))]

		res, err := p.Http.R().
			SetContext(ctx).
			SetBody(pushPayload{APIKey: p.APIKey, Rows: batch}).
			Post(p.URL)
		if err != nil {
			return fmt.Errorf("push batch %d/%d: %w", i+1, total, err)
		}
		if res.IsError() {
			body := res.String()
			if len(body) > 500 {
				body = body[:500]
			}
			return fmt.Errorf("push batch %d/%d: %s: %s", i+1, total, res.Status(), body)
		}
		slog.Info("pushed batch", "batch", i+1, "total", total, "rows", len(batch), "status", res.StatusCode())
	}
	return nil
}
