// Package scheduler repeats the single-run pipeline entry point on a
// fixed interval. The pipeline stays stateless between invocations; all
// carry-over goes through the history store and the latest snapshot.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// RunFunc is the pipeline's single-run entry point.
type RunFunc func(ctx context.Context) error

type Scheduler struct {
	interval time.Duration
	run      RunFunc
	clock    clock.Clock
	log      *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(interval time.Duration, run RunFunc, log *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
		clock:    clock.New(),
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// SetClock swaps the time source, for tests.
func (s *Scheduler) SetClock(c clock.Clock) {
	s.clock = c
}

// Run executes immediately, then once per interval until the context is
// cancelled or Stop is called. Individual run errors are logged; only
// cancellation ends the loop.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)

	if err := s.run(ctx); err != nil {
		s.log.Error("run failed", "error", err)
	}

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.run(ctx); err != nil {
				s.log.Error("run failed", "error", err)
			}
		}
	}
}

// Stop requests the loop to terminate and waits for it.
func (s *Scheduler) Stop() {
	select {
	case <-s.doneCh:
		return
	default:
	}
	close(s.stopCh)
	<-s.doneCh
}
