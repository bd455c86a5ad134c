package alert

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitescan/internal/diff"
	"sitescan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTransitions() diff.Transitions {
	return diff.Transitions{
		NewOffline: []domain.Transition{
			{Row: domain.SnapshotRow{ID: "1001", IP: "10.0.0.1", Status: domain.StatusDown}},
		},
		BackOnline: []domain.Transition{
			{Row: domain.SnapshotRow{ID: "2002", IP: "10.0.0.2", Status: domain.StatusUp}, LastSeen: time.Now()},
		},
	}
}

func TestDispatchDeliversToWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s, want application/json", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, 20, 5*time.Second, testLogger())
	records := d.Dispatch(context.Background(), "r1", time.Now(), sampleTransitions())

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (one per non-empty type)", len(records))
	}
	for _, rec := range records {
		if !rec.Attempted {
			t.Fatalf("record %s not attempted", rec.Type)
		}
		if rec.Delivered != domain.TriTrue {
			t.Fatalf("record %s delivered = %s, want true", rec.Type, rec.Delivered)
		}
		if rec.RunID != "r1" || rec.Count != 1 || rec.Message == "" {
			t.Fatalf("record malformed: %+v", rec)
		}
	}
	if got["text"] == "" {
		t.Fatal("webhook payload missing text field")
	}
}

func TestDispatchRecordsFailureWithoutAborting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, 20, 5*time.Second, testLogger())
	records := d.Dispatch(context.Background(), "r1", time.Now(), sampleTransitions())

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Delivered != domain.TriFalse {
			t.Fatalf("record %s delivered = %s, want false", rec.Type, rec.Delivered)
		}
		if rec.Detail == "" {
			t.Fatalf("record %s missing delivery detail", rec.Type)
		}
	}
}

func TestDispatchWithoutWebhookRecordsOnly(t *testing.T) {
	d := NewDispatcher("", 20, 5*time.Second, testLogger())
	records := d.Dispatch(context.Background(), "r1", time.Now(), sampleTransitions())

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Attempted {
			t.Fatalf("record %s attempted without a configured webhook", rec.Type)
		}
		if rec.Delivered != domain.TriUnknown {
			t.Fatalf("record %s delivered = %s, want unknown", rec.Type, rec.Delivered)
		}
	}
}

func TestDispatchEmptyTransitionsProducesNoRecords(t *testing.T) {
	d := NewDispatcher("", 20, 5*time.Second, testLogger())
	records := d.Dispatch(context.Background(), "r1", time.Now(), diff.Transitions{})
	if len(records) != 0 {
		t.Fatalf("records = %v, want none", records)
	}
}
