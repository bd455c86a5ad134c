// Package storage persists run results: an append-only history database,
// atomically replaced "latest" files, per-run archival copies, and the
// published live-map feed.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitescan/internal/config"
	"sitescan/internal/domain"
)

const (
	latestSummaryFile  = "summary_latest.json"
	latestSnapshotFile = "map_status_latest.json"
	latestCSVFile      = "map_status_latest.csv"
	latestFailuresFile = "failures_latest.json"
	latestGeoJSONFile  = "map_status_latest.geojson"
)

// FileSink owns the latest and per-run file artifacts. Latest files live
// directly under the output dir and are fully replaced each run.
type FileSink struct {
	cfg *config.OutputConfig
	log *slog.Logger
}

func NewFileSink(cfg *config.OutputConfig, log *slog.Logger) *FileSink {
	return &FileSink{cfg: cfg, log: log}
}

// GetLatest reads back the previous run's snapshot for transition
// detection. A missing or corrupt file means no prior data.
func (s *FileSink) GetLatest() []domain.SnapshotRow {
	path := filepath.Join(s.cfg.Dir, latestSnapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("prior snapshot unreadable, treating as no prior data", "path", path, "error", err)
		}
		return nil
	}
	var rows []domain.SnapshotRow
	if err := json.Unmarshal(data, &rows); err != nil {
		s.log.Warn("prior snapshot corrupt, treating as no prior data", "path", path, "error", err)
		return nil
	}
	return rows
}

// PutLatest writes the run's artifacts. Per-sink failures are logged and
// collected; the first error is returned so the caller can tell whether
// the core sinks landed, but later sinks are still attempted.
func (s *FileSink) PutLatest(summary domain.RunSummary, rows, failures []domain.SnapshotRow, alerts []domain.AlertRecord) error {
	var firstErr error
	keep := func(err error) {
		if err != nil {
			s.log.Warn("sink write failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	csvData, err := snapshotCSV(rows)
	if err != nil {
		return fmt.Errorf("encode snapshot csv: %w", err)
	}

	keep(writeJSONAtomic(filepath.Join(s.cfg.Dir, latestSummaryFile), summary))
	keep(writeJSONAtomic(filepath.Join(s.cfg.Dir, latestSnapshotFile), rows))
	keep(writeAtomic(filepath.Join(s.cfg.Dir, latestCSVFile), csvData))
	keep(writeJSONAtomic(filepath.Join(s.cfg.Dir, latestFailuresFile), failures))

	if s.cfg.PerRun {
		runDir := filepath.Join(s.cfg.Dir, summary.RunID)
		keep(writeJSONAtomic(filepath.Join(runDir, "summary_"+summary.RunID+".json"), summary))
		keep(writeJSONAtomic(filepath.Join(runDir, "map_status_"+summary.RunID+".json"), rows))
		keep(writeJSONAtomic(filepath.Join(runDir, "failures_"+summary.RunID+".json"), failures))
		keep(writeAtomic(filepath.Join(runDir, "map_status_"+summary.RunID+".csv"), csvData))
		if s.cfg.WriteCSV {
			keep(s.writeFailuresCSV(runDir, summary.RunID, failures))
		}
		if s.cfg.WriteTxt {
			keep(writeAtomic(filepath.Join(runDir, summary.RunID+"_ping_report.txt"),
				[]byte(textReport(summary, failures, alerts))))
		}
	}

	return firstErr
}

// Publish mirrors the latest feed files into the publish dir and writes
// the GeoJSON point collection for the live map.
func (s *FileSink) Publish(rows []domain.SnapshotRow) error {
	if s.cfg.PublishDir == "" {
		return nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil {
			s.log.Warn("publish write failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	csvData, err := snapshotCSV(rows)
	if err != nil {
		return fmt.Errorf("encode snapshot csv: %w", err)
	}

	keep(writeJSONAtomic(filepath.Join(s.cfg.PublishDir, latestSnapshotFile), rows))
	keep(writeAtomic(filepath.Join(s.cfg.PublishDir, latestCSVFile), csvData))

	fc := BuildFeatureCollection(rows)
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	keep(writeAtomic(filepath.Join(s.cfg.PublishDir, latestGeoJSONFile), append(data, '\n')))

	return firstErr
}

func (s *FileSink) writeFailuresCSV(runDir, runID string, failures []domain.SnapshotRow) error {
	data, err := snapshotCSV(failures)
	if err != nil {
		return fmt.Errorf("encode failures csv: %w", err)
	}
	return writeAtomic(filepath.Join(runDir, "failures_"+runID+".csv"), data)
}

// textReport renders the legacy operator-readable run report.
func textReport(summary domain.RunSummary, failures []domain.SnapshotRow, alerts []domain.AlertRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ping report - run %s\n", summary.RunID)
	fmt.Fprintf(&b, "started: %s\n", summary.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "source: %s\n\n", summary.Source)
	fmt.Fprintf(&b, "total endpoints:    %d\n", summary.TotalEndpoints)
	fmt.Fprintf(&b, "initial responding: %d\n", summary.InitialResponding)
	fmt.Fprintf(&b, "initial timeouts:   %d\n", summary.InitialTimeouts)
	fmt.Fprintf(&b, "retry recovered:    %d\n", summary.RetryRecovered)
	fmt.Fprintf(&b, "final recovered:    %d\n", summary.FinalRecovered)
	fmt.Fprintf(&b, "final timeouts:     %d\n", summary.FinalTimeouts)
	if summary.GatewayChecked {
		fmt.Fprintf(&b, "gateway online:     %d\n", summary.GatewayOnline)
		fmt.Fprintf(&b, "gateway offline:    %d\n", summary.GatewayOffline)
	}
	fmt.Fprintf(&b, "duration: %s\n", summary.Duration)

	if len(failures) > 0 {
		b.WriteString("\nfailures:\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "  %s (%s) %s status=%s stage=%s gateway=%s\n",
				r.ID, r.GroupName, r.IP, r.Status, r.FailedStage, r.GatewayUp)
		}
	}

	for _, a := range alerts {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", a.Type, a.Message)
	}
	return b.String()
}
