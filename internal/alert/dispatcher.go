// Package alert renders transition alerts and delivers them to an
// optional webhook. Delivery failures are recorded, never fatal.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"sitescan/internal/diff"
	"sitescan/internal/domain"
	"sitescan/pkg/uuidutil"
)

type Dispatcher struct {
	webhookURL string
	maxItems   int
	client     *http.Client
	log        *slog.Logger
}

func NewDispatcher(webhookURL string, maxItems int, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxItems <= 0 {
		maxItems = 20
	}
	return &Dispatcher{
		webhookURL: webhookURL,
		maxItems:   maxItems,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Dispatch produces one alert record per non-empty transition type,
// attempting webhook delivery when a URL is configured.
func (d *Dispatcher) Dispatch(ctx context.Context, runID string, ts time.Time, t diff.Transitions) []domain.AlertRecord {
	var records []domain.AlertRecord
	if len(t.NewOffline) > 0 {
		records = append(records, d.dispatchOne(ctx, runID, ts, domain.AlertNewOffline, t.NewOffline))
	}
	if len(t.BackOnline) > 0 {
		records = append(records, d.dispatchOne(ctx, runID, ts, domain.AlertBackOnline, t.BackOnline))
	}
	return records
}

func (d *Dispatcher) dispatchOne(ctx context.Context, runID string, ts time.Time, kind domain.AlertType, items []domain.Transition) domain.AlertRecord {
	rec := domain.AlertRecord{
		ID:        uuidutil.New(),
		RunID:     runID,
		Type:      kind,
		Count:     len(items),
		Message:   Render(kind, items, runID, ts, d.maxItems),
		Delivered: domain.TriUnknown,
	}

	if d.webhookURL == "" {
		d.log.Info("no webhook configured, alert recorded only", "type", kind, "count", rec.Count)
		return rec
	}

	rec.Attempted = true
	ok, detail := d.deliver(ctx, rec.Message)
	rec.Delivered = domain.TriFromBool(ok)
	rec.Detail = detail
	if ok {
		d.log.Info("alert delivered", "type", kind, "count", rec.Count)
	} else {
		d.log.Warn("alert delivery failed", "type", kind, "detail", detail)
	}
	return rec
}

func (d *Dispatcher) deliver(ctx context.Context, message string) (bool, string) {
	payload, _ := json.Marshal(map[string]string{"text": message})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	if res.StatusCode >= 300 {
		return false, fmt.Sprintf("status %d: %s", res.StatusCode, string(body))
	}
	return true, fmt.Sprintf("status %d", res.StatusCode)
}
