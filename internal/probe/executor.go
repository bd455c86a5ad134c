package probe

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sitescan/internal/domain"
)

// Target is one (identity, address) pair for a pass.
type Target struct {
	ID      string
	Address string
}

type outcome struct {
	target Target
	up     bool
}

// Params bounds one executor pass.
type Params struct {
	Attempts      int
	Timeout       time.Duration
	MaxWorkers    int
	ProgressEvery int
	Label         string
}

// Executor fans a batch of probes across a bounded worker pool and joins
// the results into deterministic success/failure lists.
type Executor struct {
	prober Prober
	log    *slog.Logger
}

func NewExecutor(prober Prober, log *slog.Logger) *Executor {
	return &Executor{prober: prober, log: log}
}

// Run probes every target once (with params.Attempts packets each) and
// returns disjoint success and failure lists covering all targets, both
// sorted by the stable endpoint ordering. Targets with an empty address
// fail without an external probe. A prober error is a failure, never an
// abort.
func (e *Executor) Run(ctx context.Context, targets []Target, params Params) (successes, failures []Target) {
	if len(targets) == 0 {
		return nil, nil
	}

	workers := params.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	jobs := make(chan Target)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				up := false
				if t.Address != "" {
					up = e.probeSafe(ctx, t.Address, params)
				}
				results <- outcome{target: t, up: up}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range targets {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collection happens on the joining goroutine only; no locks needed.
	done := 0
	for res := range results {
		done++
		if res.up {
			successes = append(successes, res.target)
		} else {
			failures = append(failures, res.target)
		}
		if params.ProgressEvery > 0 && done%params.ProgressEvery == 0 {
			e.log.Info("probe progress", "pass", params.Label, "done", done, "total", len(targets))
		}
	}

	// Targets never handed to a worker (context cancelled mid-feed) still
	// have to appear in the output; they count as failures.
	if done < len(targets) {
		seen := make(map[Target]bool, done)
		for _, t := range successes {
			seen[t] = true
		}
		for _, t := range failures {
			seen[t] = true
		}
		for _, t := range targets {
			if !seen[t] {
				failures = append(failures, t)
			}
		}
	}

	SortTargets(successes)
	SortTargets(failures)
	return successes, failures
}

func (e *Executor) probeSafe(ctx context.Context, address string, params Params) (up bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("prober panic treated as failure", "address", address, "panic", r)
			up = false
		}
	}()
	return e.prober.Probe(ctx, address, params.Attempts, params.Timeout)
}

// SortTargets orders targets by numeric identity prefix, then identity.
func SortTargets(targets []Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		return domain.Less(targets[i].ID, targets[j].ID)
	})
}
