package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sitescan/internal/app"
	"sitescan/internal/config"
	"sitescan/internal/scheduler"
	"sitescan/pkg/logger"
)

func main() {
	var (
		runID        = flag.String("run-id", "", "run id (default: timestamp)")
		gatewayCheck = flag.Bool("gateway-check", false, "probe gateways for confirmed failures")
		interval     = flag.Duration("interval", -1, "repeat interval (0 runs once, overrides config)")
		outputDir    = flag.String("output-dir", "", "output directory (overrides config)")
		publishDir   = flag.String("publish-dir", "", "publish directory for the live feed (overrides config)")
		writeCSV     = flag.Bool("write-csv", false, "also write per-run failures CSV")
		writeTxt     = flag.Bool("write-txt", false, "also write per-run text report")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	if flag.NArg() > 0 {
		cfg.Input.StoresCSV = flag.Arg(0)
	}
	if *gatewayCheck {
		cfg.Probe.GatewayCheck = true
	}
	if *interval >= 0 {
		cfg.Schedule.Interval = *interval
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *publishDir != "" {
		cfg.Output.PublishDir = *publishDir
	}
	if *writeCSV {
		cfg.Output.WriteCSV = true
	}
	if *writeTxt {
		cfg.Output.WriteTxt = true
	}

	appLog := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	appLog.Info("starting sitescan",
		slog.String("name", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("source", cfg.Input.StoresCSV),
		slog.Bool("gateway_check", cfg.Probe.GatewayCheck),
	)

	a, err := app.New(cfg, appLog)
	if err != nil {
		appLog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.Interval <= 0 {
		if _, err := a.RunOnce(ctx, *runID); err != nil {
			appLog.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(cfg.Schedule.Interval, func(ctx context.Context) error {
		// Scheduled runs always take timestamp ids, or they would
		// overwrite each other in the history store.
		_, err := a.RunOnce(ctx, "")
		return err
	}, appLog.With("module", "scheduler"))

	appLog.Info("scheduler started", slog.Duration("interval", cfg.Schedule.Interval))
	go sched.Run(ctx)

	<-ctx.Done()
	sched.Stop()
	appLog.Info("stopped")
}
