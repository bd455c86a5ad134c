// Package app wires the pipeline together and drives one run end to end:
// inventory, probing passes, classification, transition detection, alert
// dispatch and publication.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"

	"sitescan/internal/alert"
	"sitescan/internal/config"
	"sitescan/internal/diff"
	"sitescan/internal/domain"
	"sitescan/internal/inventory"
	"sitescan/internal/probe"
	"sitescan/internal/scan"
	"sitescan/internal/storage"
)

const runIDLayout = "20060102_150405"

type App struct {
	cfg *config.Config
	log *slog.Logger

	controller *scan.Controller
	dispatcher *alert.Dispatcher
	sink       *storage.FileSink
	history    *storage.History
	feed       *storage.RedisFeed
	clock      clock.Clock
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	executor := probe.NewExecutor(probe.NewPingProber(), log.With("module", "probe"))

	a := &App{
		cfg:        cfg,
		log:        log,
		controller: scan.NewController(executor, &cfg.Probe, log.With("module", "scan")),
		dispatcher: alert.NewDispatcher(cfg.Alerts.WebhookURL, cfg.Alerts.MaxItems, cfg.Alerts.Timeout, log.With("module", "alert")),
		sink:       storage.NewFileSink(&cfg.Output, log.With("module", "storage")),
		clock:      clock.New(),
	}

	if cfg.History.Driver != "" && cfg.History.Driver != "none" {
		history, err := storage.OpenHistory(&cfg.History, log.With("module", "history"))
		if err != nil {
			// History is a warning-grade sink; the run can still produce
			// its file artifacts without it.
			log.Warn("history store unavailable", "error", err)
		} else {
			a.history = history
		}
	}

	if cfg.Redis.Enabled() {
		feed, err := storage.NewRedisFeed(&cfg.Redis, log.With("module", "redis"))
		if err != nil {
			log.Warn("redis feed unavailable", "error", err)
		} else {
			a.feed = feed
		}
	}

	return a, nil
}

func (a *App) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	if a.feed != nil {
		_ = a.feed.Close()
	}
}

// RunOnce executes a complete probe-classify-publish cycle. Only fatal
// input errors (unreadable inventory, zero usable rows) are returned;
// sink and delivery failures are recorded and logged instead.
func (a *App) RunOnce(ctx context.Context, runID string) (*domain.RunSummary, error) {
	started := a.clock.Now()
	if runID == "" {
		runID = started.Format(runIDLayout)
	}
	log := a.log.With("run_id", runID)

	groups := inventory.LoadGroups(a.cfg.Input.DCCSV, log)
	endpoints, err := inventory.Load(a.cfg.Input.StoresCSV, groups, log)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	log.Info("inventory loaded", "endpoints", len(endpoints), "source", a.cfg.Input.StoresCSV)

	outcome := a.controller.Run(ctx, endpoints)
	rows := scan.BuildRows(runID, started, endpoints, outcome)
	failures := scan.Failures(rows)

	prior := a.sink.GetLatest()
	transitions := diff.Detect(prior, rows)
	records := a.dispatcher.Dispatch(ctx, runID, started, transitions)

	summary := domain.RunSummary{
		RunID:             runID,
		Timestamp:         started,
		Source:            a.cfg.Input.StoresCSV,
		TotalEndpoints:    len(endpoints),
		InitialResponding: outcome.InitialResponding,
		InitialTimeouts:   outcome.InitialTimeouts,
		RetryRecovered:    outcome.RetryRecovered,
		FinalRecovered:    outcome.FinalRecovered,
		FinalTimeouts:     outcome.FinalTimeouts,
		GatewayChecked:    outcome.GatewayChecked,
		GatewayOnline:     outcome.GatewayOnline,
		GatewayOffline:    outcome.GatewayOffline,
		NewOffline:        len(transitions.NewOffline),
		BackOnline:        len(transitions.BackOnline),
		Phases: domain.PhaseTimings{
			Initial: outcome.InitialDuration,
			Retry:   outcome.RetryDuration,
			Final:   outcome.FinalDuration,
			Gateway: outcome.GatewayDuration,
		},
	}

	publishStart := a.clock.Now()
	a.publish(ctx, &summary, rows, failures, records)
	summary.Phases.Publish = a.clock.Now().Sub(publishStart)
	summary.Duration = a.clock.Now().Sub(started)

	// History goes last so the stored summary carries the final timings.
	if a.history != nil {
		if err := a.history.SaveRun(ctx, summary, rows, records); err != nil {
			log.Warn("history save failed", "error", err)
		}
	}

	log.Info("run complete",
		"total", summary.TotalEndpoints,
		"final_timeouts", summary.FinalTimeouts,
		"new_offline", summary.NewOffline,
		"back_online", summary.BackOnline,
		"duration", summary.Duration,
	)
	return &summary, nil
}

func (a *App) publish(ctx context.Context, summary *domain.RunSummary, rows, failures []domain.SnapshotRow, records []domain.AlertRecord) {
	if err := a.sink.PutLatest(*summary, rows, failures, records); err != nil {
		a.log.Warn("latest file sinks incomplete", "error", err)
	}
	if err := a.sink.Publish(rows); err != nil {
		a.log.Warn("publish dir sinks incomplete", "error", err)
	}
	if a.feed != nil {
		if err := a.feed.Publish(ctx, summary.RunID, rows); err != nil {
			a.log.Warn("redis feed publish failed", "error", err)
		}
	}
}
