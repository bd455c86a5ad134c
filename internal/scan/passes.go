package scan

import (
	"context"
	"log/slog"
	"time"

	"sitescan/internal/config"
	"sitescan/internal/domain"
	"sitescan/internal/probe"
)

// PassOutcome is the stable result of all probing passes for one run.
// Everything downstream (rows, summary, diff) reads from here.
type PassOutcome struct {
	ServerUp    map[string]bool            // endpoint key -> primary reachable
	GatewayUp   map[string]domain.TriState // endpoint key -> secondary result
	FailedStage map[string]domain.FailStage

	InitialResponding int
	InitialTimeouts   int
	RetryRecovered    int
	FinalRecovered    int
	FinalTimeouts     int
	GatewayChecked    bool
	GatewayOnline     int
	GatewayOffline    int

	InitialDuration time.Duration
	RetryDuration   time.Duration
	FinalDuration   time.Duration
	GatewayDuration time.Duration
}

// Controller sequences the probing passes. Passes run strictly in order;
// each narrows the target set to the previous pass's failures.
type Controller struct {
	exec *probe.Executor
	cfg  *config.ProbeConfig
	log  *slog.Logger
}

func NewController(exec *probe.Executor, cfg *config.ProbeConfig, log *slog.Logger) *Controller {
	return &Controller{exec: exec, cfg: cfg, log: log}
}

// Run drives initial, retry, final-confirm and (optionally) gateway
// passes over the inventory. Only endpoints still failing after the
// final-confirm pass are non-UP candidates.
func (c *Controller) Run(ctx context.Context, endpoints []domain.Endpoint) *PassOutcome {
	out := &PassOutcome{
		ServerUp:       make(map[string]bool, len(endpoints)),
		GatewayUp:      make(map[string]domain.TriState, len(endpoints)),
		FailedStage:    make(map[string]domain.FailStage, len(endpoints)),
		GatewayChecked: c.cfg.GatewayCheck,
	}

	// Identities are not unique in the inventory, so all pass state is
	// keyed by identity plus address.
	byKey := make(map[string]domain.Endpoint, len(endpoints))
	targets := make([]probe.Target, 0, len(endpoints))
	for _, ep := range endpoints {
		k := ep.Key()
		byKey[k] = ep
		targets = append(targets, probe.Target{ID: ep.ID, Address: ep.IP})
		out.ServerUp[k] = false
		out.GatewayUp[k] = domain.TriUnknown
	}

	timeout := c.cfg.Timeout()

	// Pass 1: one packet per endpoint, full inventory.
	start := time.Now()
	up, down := c.exec.Run(ctx, targets, probe.Params{
		Attempts:      1,
		Timeout:       timeout,
		MaxWorkers:    c.cfg.MaxWorkers,
		ProgressEvery: c.cfg.ProgressEvery,
		Label:         "initial",
	})
	out.InitialDuration = time.Since(start)
	out.InitialResponding = len(up)
	out.InitialTimeouts = len(down)
	c.markUp(out, up)
	c.log.Info("initial pass complete",
		"responding", len(up),
		"timeouts", len(down),
		"duration", out.InitialDuration,
	)
	if len(down) == 0 {
		return out
	}

	// Pass 2: multi-packet retry of the initial failures.
	start = time.Now()
	up, down = c.exec.Run(ctx, down, probe.Params{
		Attempts:      c.cfg.RetryPings,
		Timeout:       timeout,
		MaxWorkers:    c.cfg.MaxWorkers,
		ProgressEvery: c.cfg.ProgressEvery,
		Label:         "retry",
	})
	out.RetryDuration = time.Since(start)
	out.RetryRecovered = len(up)
	c.markUp(out, up)
	c.markStage(out, down, domain.FailStageRetry)
	c.log.Info("retry pass complete",
		"recovered", len(up),
		"still_down", len(down),
		"duration", out.RetryDuration,
	)
	if len(down) == 0 {
		return out
	}

	// Pass 3: final confirm rules out transient loss right before the
	// results are persisted.
	start = time.Now()
	up, down = c.exec.Run(ctx, down, probe.Params{
		Attempts:      c.cfg.RetryPings,
		Timeout:       timeout,
		MaxWorkers:    c.cfg.MaxWorkers,
		ProgressEvery: c.cfg.ProgressEvery,
		Label:         "final",
	})
	out.FinalDuration = time.Since(start)
	out.FinalRecovered = len(up)
	out.FinalTimeouts = len(down)
	c.markUp(out, up)
	c.markStage(out, down, domain.FailStageFinal)
	c.log.Info("final confirm pass complete",
		"recovered", len(up),
		"confirmed_down", len(down),
		"duration", out.FinalDuration,
	)
	if len(down) == 0 || !c.cfg.GatewayCheck {
		return out
	}

	// Pass 4: gateway check for confirmed failures only. Endpoints that
	// share a gateway address are probed once and share the result.
	gwTargets := make([]probe.Target, 0, len(down))
	gwKeys := make(map[probe.Target][]string, len(down))
	for _, t := range down {
		k := targetKey(t)
		addr := GatewayAddress(byKey[k])
		if addr == "" {
			continue
		}
		gt := probe.Target{ID: t.ID, Address: addr}
		if _, seen := gwKeys[gt]; !seen {
			gwTargets = append(gwTargets, gt)
		}
		gwKeys[gt] = append(gwKeys[gt], k)
	}
	if len(gwTargets) == 0 {
		return out
	}

	start = time.Now()
	gwUp, gwDown := c.exec.Run(ctx, gwTargets, probe.Params{
		Attempts:      c.cfg.RetryPings,
		Timeout:       timeout,
		MaxWorkers:    c.cfg.GatewayMaxWorkers,
		ProgressEvery: c.cfg.GWProgressEvery,
		Label:         "gateway",
	})
	out.GatewayDuration = time.Since(start)
	for _, t := range gwUp {
		for _, k := range gwKeys[t] {
			out.GatewayUp[k] = domain.TriTrue
			out.GatewayOnline++
		}
	}
	for _, t := range gwDown {
		for _, k := range gwKeys[t] {
			out.GatewayUp[k] = domain.TriFalse
			out.FailedStage[k] = domain.FailStageGateway
			out.GatewayOffline++
		}
	}
	c.log.Info("gateway pass complete",
		"online", out.GatewayOnline,
		"offline", out.GatewayOffline,
		"duration", out.GatewayDuration,
	)
	return out
}

func (c *Controller) markUp(out *PassOutcome, targets []probe.Target) {
	for _, t := range targets {
		k := targetKey(t)
		out.ServerUp[k] = true
		out.FailedStage[k] = domain.FailStageNone
	}
}

func (c *Controller) markStage(out *PassOutcome, targets []probe.Target, stage domain.FailStage) {
	for _, t := range targets {
		out.FailedStage[targetKey(t)] = stage
	}
}

// targetKey matches domain.Endpoint.Key for the primary-address passes,
// where the probed address is the endpoint's own IP.
func targetKey(t probe.Target) string {
	return t.ID + "|" + t.Address
}
