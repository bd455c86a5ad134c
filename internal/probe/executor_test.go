package probe

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeProber answers from a fixed address table with optional per-call
// delays so completion order differs from input order.
type fakeProber struct {
	mu    sync.Mutex
	up    map[string]bool
	delay map[string]time.Duration
	calls map[string]int
	panic map[string]bool
}

func newFakeProber(up map[string]bool) *fakeProber {
	return &fakeProber{
		up:    up,
		delay: map[string]time.Duration{},
		calls: map[string]int{},
		panic: map[string]bool{},
	}
}

func (f *fakeProber) Probe(ctx context.Context, address string, attempts int, timeout time.Duration) bool {
	f.mu.Lock()
	f.calls[address]++
	d := f.delay[address]
	shouldPanic := f.panic[address]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if shouldPanic {
		panic("prober exploded")
	}
	return f.up[address]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPartitionsAllTargets(t *testing.T) {
	targets := []Target{
		{ID: "3003", Address: "10.0.0.3"},
		{ID: "1001", Address: "10.0.0.1"},
		{ID: "2002", Address: "10.0.0.2"},
		{ID: "4004", Address: "10.0.0.4"},
	}
	prober := newFakeProber(map[string]bool{
		"10.0.0.1": true,
		"10.0.0.2": false,
		"10.0.0.3": true,
		"10.0.0.4": false,
	})

	exec := NewExecutor(prober, testLogger())
	up, down := exec.Run(context.Background(), targets, Params{Attempts: 1, Timeout: time.Second, MaxWorkers: 4})

	if len(up)+len(down) != len(targets) {
		t.Fatalf("len(up)+len(down) = %d, want %d", len(up)+len(down), len(targets))
	}
	seen := map[string]bool{}
	for _, tg := range append(append([]Target{}, up...), down...) {
		if seen[tg.ID] {
			t.Fatalf("duplicate identity %s in output", tg.ID)
		}
		seen[tg.ID] = true
	}
	if up[0].ID != "1001" || up[1].ID != "3003" {
		t.Fatalf("successes = %v, want [1001 3003]", up)
	}
	if down[0].ID != "2002" || down[1].ID != "4004" {
		t.Fatalf("failures = %v, want [2002 4004]", down)
	}
}

func TestRunEmptyAddressFailsWithoutProbing(t *testing.T) {
	prober := newFakeProber(map[string]bool{"10.0.0.1": true})
	exec := NewExecutor(prober, testLogger())

	up, down := exec.Run(context.Background(), []Target{
		{ID: "1001", Address: "10.0.0.1"},
		{ID: "2002", Address: ""},
	}, Params{Attempts: 1, Timeout: time.Second, MaxWorkers: 2})

	if len(up) != 1 || len(down) != 1 || down[0].ID != "2002" {
		t.Fatalf("up=%v down=%v, want 2002 failing", up, down)
	}
	if prober.calls[""] != 0 {
		t.Fatal("empty address must not reach the prober")
	}
}

func TestRunProberPanicIsFailure(t *testing.T) {
	prober := newFakeProber(map[string]bool{"10.0.0.1": true, "10.0.0.2": true})
	prober.panic["10.0.0.2"] = true
	exec := NewExecutor(prober, testLogger())

	up, down := exec.Run(context.Background(), []Target{
		{ID: "1001", Address: "10.0.0.1"},
		{ID: "2002", Address: "10.0.0.2"},
	}, Params{Attempts: 1, Timeout: time.Second, MaxWorkers: 2})

	if len(up) != 1 || up[0].ID != "1001" {
		t.Fatalf("up = %v, want [1001]", up)
	}
	if len(down) != 1 || down[0].ID != "2002" {
		t.Fatalf("down = %v, want [2002]", down)
	}
}

func TestRunOrderingIndependentOfCompletionOrder(t *testing.T) {
	targets := make([]Target, 0, 8)
	up := map[string]bool{}
	prober := newFakeProber(up)
	addrs := []string{"10.0.0.8", "10.0.0.3", "10.0.0.6", "10.0.0.1", "10.0.0.5", "10.0.0.2", "10.0.0.7", "10.0.0.4"}
	ids := []string{"8", "3", "6", "1", "5", "2", "7", "4"}
	for i, addr := range addrs {
		targets = append(targets, Target{ID: ids[i], Address: addr})
		up[addr] = true
		// Reverse the completion order relative to the sorted order.
		prober.delay[addr] = time.Duration(8-i) * 5 * time.Millisecond
	}

	exec := NewExecutor(prober, testLogger())
	got, down := exec.Run(context.Background(), targets, Params{Attempts: 1, Timeout: time.Second, MaxWorkers: 8})

	if len(down) != 0 {
		t.Fatalf("unexpected failures: %v", down)
	}
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for i, tg := range got {
		if tg.ID != want[i] {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, tg.ID, want[i], got)
		}
	}
}

func TestSortTargetsNumericPrefix(t *testing.T) {
	targets := []Target{{ID: "999"}, {ID: "10"}, {ID: "2"}, {ID: "abc"}}
	SortTargets(targets)
	want := []string{"2", "10", "999", "abc"}
	for i, tg := range targets {
		if tg.ID != want[i] {
			t.Fatalf("order = %v, want %v", targets, want)
		}
	}
}
