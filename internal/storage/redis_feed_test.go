package storage

import (
	"encoding/json"
	"testing"
	"time"

	"sitescan/internal/domain"
)

func TestFeedPayloadShape(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := []domain.SnapshotRow{
		{
			RunID: "r1", Timestamp: ts, ID: "1001", IP: "10.0.0.1",
			ServerUp: true, GatewayUp: domain.TriUnknown,
			Status: domain.StatusUp,
		},
		{
			RunID: "r1", Timestamp: ts, ID: "2002", IP: "10.0.0.2",
			ServerUp: false, GatewayUp: domain.TriFalse,
			Status: domain.StatusDown, StatusCode: 2,
			FailedStage: domain.FailStageGateway,
		},
	}

	payload, err := feedPayload("r1", rows)
	if err != nil {
		t.Fatalf("feed payload: %v", err)
	}

	var got struct {
		RunID string               `json:"run_id"`
		Rows  []domain.SnapshotRow `json:"rows"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.RunID != "r1" {
		t.Fatalf("run id = %q, want r1", got.RunID)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(got.Rows))
	}
	down := got.Rows[1]
	if down.Status != domain.StatusDown || down.GatewayUp != domain.TriFalse {
		t.Fatalf("down row = %s/%s, want DOWN/false", down.Status, down.GatewayUp)
	}
	if down.FailedStage != domain.FailStageGateway {
		t.Fatalf("failed stage = %q, want gateway", down.FailedStage)
	}
}

func TestFeedPayloadEmptyRows(t *testing.T) {
	payload, err := feedPayload("r2", nil)
	if err != nil {
		t.Fatalf("feed payload: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if _, ok := got["run_id"]; !ok {
		t.Fatal("payload missing run_id")
	}
	if _, ok := got["rows"]; !ok {
		t.Fatal("payload missing rows")
	}
}
