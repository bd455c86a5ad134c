package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"sitescan/internal/domain"
)

// writeAtomic writes data to path through a temp file in the same
// directory plus a rename, so a concurrent reader never sees a torn file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

var snapshotCSVHeader = []string{
	"run_id", "timestamp", "store", "dc_code", "dc_name", "ip", "gateway",
	"server_up", "gateway_up", "status", "status_code", "failed_stage",
	"address", "city", "state", "zip", "latitude", "longitude",
}

func snapshotCSV(rows []domain.SnapshotRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(snapshotCSVHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.RunID, formatTime(r.Timestamp), r.ID, r.GroupCode, r.GroupName,
			r.IP, r.Gateway,
			strconv.FormatBool(r.ServerUp), string(r.GatewayUp),
			string(r.Status), strconv.Itoa(r.StatusCode), string(r.FailedStage),
			r.Address, r.City, r.State, r.ZIP,
			floatField(r.Latitude), floatField(r.Longitude),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func floatField(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
