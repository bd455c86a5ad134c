package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"sitescan/internal/config"
	"sitescan/internal/domain"
)

// History is the append-only run store. Saving a run id twice replaces
// the earlier rows atomically; it never duplicates.
type History struct {
	db     *sql.DB
	driver string
}

// OpenHistory opens the history store for the configured driver:
// sqlite3 (file with WAL) or pgx (shared central database).
func OpenHistory(cfg *config.HistoryConfig, log *slog.Logger) (*History, error) {
	var dsn string
	switch cfg.Driver {
	case "sqlite3":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir history dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
	case "pgx":
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history store: %w", err)
	}

	h := &History{db: db, driver: cfg.Driver}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("history store ready", "driver", cfg.Driver)
	return h, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run_summaries (
			run_id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			source TEXT NOT NULL,
			total_endpoints INTEGER NOT NULL,
			initial_responding INTEGER NOT NULL,
			initial_timeouts INTEGER NOT NULL,
			retry_recovered INTEGER NOT NULL,
			final_recovered INTEGER NOT NULL,
			final_timeouts INTEGER NOT NULL,
			gateway_checked INTEGER NOT NULL,
			gateway_online INTEGER NOT NULL,
			gateway_offline INTEGER NOT NULL,
			new_offline INTEGER NOT NULL,
			back_online INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			initial_ms INTEGER NOT NULL,
			retry_ms INTEGER NOT NULL,
			final_ms INTEGER NOT NULL,
			gateway_ms INTEGER NOT NULL,
			publish_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_rows (
			run_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			store TEXT NOT NULL,
			dc_code TEXT NOT NULL,
			dc_name TEXT NOT NULL,
			ip TEXT NOT NULL,
			gateway TEXT NOT NULL,
			server_up INTEGER NOT NULL,
			gateway_up TEXT NOT NULL,
			status TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			failed_stage TEXT NOT NULL,
			address TEXT NOT NULL,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			zip TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			PRIMARY KEY (run_id, store, ip)
		);`,
		`CREATE TABLE IF NOT EXISTS alert_records (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			message TEXT NOT NULL,
			attempted INTEGER NOT NULL,
			delivered TEXT NOT NULL,
			detail TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_rows_run ON snapshot_rows(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_alert_records_run ON alert_records(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := h.db.Exec(stmt); err != nil {
			return fmt.Errorf("history migrate failed: %w", err)
		}
	}
	return nil
}

// SaveRun appends one run (summary, rows, alert records) in a single
// transaction, deleting any prior rows for the same run id first.
func (h *History) SaveRun(ctx context.Context, summary domain.RunSummary, rows []domain.SnapshotRow, alerts []domain.AlertRecord) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"run_summaries", "snapshot_rows", "alert_records"} {
		if _, err := tx.ExecContext(ctx, h.rebind("DELETE FROM "+table+" WHERE run_id = ?"), summary.RunID); err != nil {
			return fmt.Errorf("clear prior run %s: %w", summary.RunID, err)
		}
	}

	if err := h.insertSummary(ctx, tx, summary); err != nil {
		return err
	}
	if err := h.insertRows(ctx, tx, rows); err != nil {
		return err
	}
	if err := h.insertAlerts(ctx, tx, alerts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

func (h *History) insertSummary(ctx context.Context, tx *sql.Tx, s domain.RunSummary) error {
	query := h.rebind(`INSERT INTO run_summaries (
		run_id, ts, source, total_endpoints, initial_responding, initial_timeouts,
		retry_recovered, final_recovered, final_timeouts,
		gateway_checked, gateway_online, gateway_offline,
		new_offline, back_online,
		duration_ms, initial_ms, retry_ms, final_ms, gateway_ms, publish_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := tx.ExecContext(ctx, query,
		s.RunID, formatTime(s.Timestamp), s.Source,
		s.TotalEndpoints, s.InitialResponding, s.InitialTimeouts,
		s.RetryRecovered, s.FinalRecovered, s.FinalTimeouts,
		boolInt(s.GatewayChecked), s.GatewayOnline, s.GatewayOffline,
		s.NewOffline, s.BackOnline,
		s.Duration.Milliseconds(), s.Phases.Initial.Milliseconds(),
		s.Phases.Retry.Milliseconds(), s.Phases.Final.Milliseconds(),
		s.Phases.Gateway.Milliseconds(), s.Phases.Publish.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run summary %s: %w", s.RunID, err)
	}
	return nil
}

func (h *History) insertRows(ctx context.Context, tx *sql.Tx, rows []domain.SnapshotRow) error {
	query := h.rebind(`INSERT INTO snapshot_rows (
		run_id, ts, store, dc_code, dc_name, ip, gateway,
		server_up, gateway_up, status, status_code, failed_stage,
		address, city, state, zip, latitude, longitude
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.RunID, formatTime(r.Timestamp), r.ID, r.GroupCode, r.GroupName,
			r.IP, r.Gateway,
			boolInt(r.ServerUp), string(r.GatewayUp), string(r.Status), r.StatusCode,
			string(r.FailedStage),
			r.Address, r.City, r.State, r.ZIP,
			nullFloat(r.Latitude), nullFloat(r.Longitude),
		)
		if err != nil {
			return fmt.Errorf("insert snapshot row %s: %w", r.ID, err)
		}
	}
	return nil
}

func (h *History) insertAlerts(ctx context.Context, tx *sql.Tx, alerts []domain.AlertRecord) error {
	query := h.rebind(`INSERT INTO alert_records (
		id, run_id, alert_type, item_count, message, attempted, delivered, detail
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, a := range alerts {
		_, err := tx.ExecContext(ctx, query,
			a.ID, a.RunID, string(a.Type), a.Count, a.Message,
			boolInt(a.Attempted), string(a.Delivered), a.Detail,
		)
		if err != nil {
			return fmt.Errorf("insert alert record %s: %w", a.ID, err)
		}
	}
	return nil
}

// GetRun loads one run's snapshot rows back, in stored order.
func (h *History) GetRun(ctx context.Context, runID string) ([]domain.SnapshotRow, error) {
	query := h.rebind(`SELECT run_id, ts, store, dc_code, dc_name, ip, gateway,
		server_up, gateway_up, status, status_code, failed_stage,
		address, city, state, zip, latitude, longitude
	FROM snapshot_rows WHERE run_id = ?`)

	sqlRows, err := h.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer sqlRows.Close()

	var rows []domain.SnapshotRow
	for sqlRows.Next() {
		var r domain.SnapshotRow
		var ts string
		var serverUp int
		var gatewayUp, status, stage string
		var lat, lon sql.NullFloat64
		err := sqlRows.Scan(&r.RunID, &ts, &r.ID, &r.GroupCode, &r.GroupName,
			&r.IP, &r.Gateway, &serverUp, &gatewayUp, &status, &r.StatusCode,
			&stage, &r.Address, &r.City, &r.State, &r.ZIP, &lat, &lon)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		r.ServerUp = serverUp != 0
		r.GatewayUp = domain.TriState(gatewayUp)
		r.Status = domain.Status(status)
		r.FailedStage = domain.FailStage(stage)
		if lat.Valid {
			r.Latitude = &lat.Float64
		}
		if lon.Valid {
			r.Longitude = &lon.Float64
		}
		rows = append(rows, r)
	}
	return rows, sqlRows.Err()
}

// GetSummaries lists the most recent run summaries, newest first.
func (h *History) GetSummaries(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := h.rebind(`SELECT run_id, ts, source, total_endpoints,
		initial_responding, initial_timeouts, retry_recovered, final_recovered,
		final_timeouts, gateway_checked, gateway_online, gateway_offline,
		new_offline, back_online,
		duration_ms, initial_ms, retry_ms, final_ms, gateway_ms, publish_ms
	FROM run_summaries ORDER BY ts DESC LIMIT ?`)

	sqlRows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer sqlRows.Close()

	var out []domain.RunSummary
	for sqlRows.Next() {
		var s domain.RunSummary
		var ts string
		var gwChecked int
		var durMS, initMS, retryMS, finalMS, gwMS, pubMS int64
		err := sqlRows.Scan(&s.RunID, &ts, &s.Source, &s.TotalEndpoints,
			&s.InitialResponding, &s.InitialTimeouts, &s.RetryRecovered,
			&s.FinalRecovered, &s.FinalTimeouts, &gwChecked,
			&s.GatewayOnline, &s.GatewayOffline, &s.NewOffline, &s.BackOnline,
			&durMS, &initMS, &retryMS, &finalMS, &gwMS, &pubMS)
		if err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		s.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		s.GatewayChecked = gwChecked != 0
		s.Duration = time.Duration(durMS) * time.Millisecond
		s.Phases = domain.PhaseTimings{
			Initial: time.Duration(initMS) * time.Millisecond,
			Retry:   time.Duration(retryMS) * time.Millisecond,
			Final:   time.Duration(finalMS) * time.Millisecond,
			Gateway: time.Duration(gwMS) * time.Millisecond,
			Publish: time.Duration(pubMS) * time.Millisecond,
		}
		out = append(out, s)
	}
	return out, sqlRows.Err()
}

// rebind rewrites ? placeholders to $n for the pgx driver.
func (h *History) rebind(query string) string {
	if h.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Fixed-width fractional seconds so stored timestamps sort correctly as
// text; ORDER BY ts relies on this.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
