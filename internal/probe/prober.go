package probe

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// Prober answers whether an address responded to a reachability probe.
// Implementations must never panic or hang past the timeout; any internal
// error is reported as unreachable.
type Prober interface {
	Probe(ctx context.Context, address string, attempts int, timeout time.Duration) bool
}

// PingProber shells out to the OS ping utility. The process gets a hard
// deadline beyond the per-packet timeout so a wedged ping cannot stall
// the batch.
type PingProber struct{}

func NewPingProber() *PingProber {
	return &PingProber{}
}

func (p *PingProber) Probe(ctx context.Context, address string, attempts int, timeout time.Duration) bool {
	if address == "" {
		return false
	}
	if attempts < 1 {
		attempts = 1
	}

	hard := time.Duration(attempts)*timeout + 5*time.Second
	if hard < 5*time.Second {
		hard = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, hard)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ping", pingArgs(address, attempts, timeout)...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

func pingArgs(address string, attempts int, timeout time.Duration) []string {
	if runtime.GOOS == "windows" {
		return []string{"-n", strconv.Itoa(attempts), "-w", strconv.Itoa(int(timeout.Milliseconds())), address}
	}
	secs := int((timeout + 999*time.Millisecond) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", strconv.Itoa(attempts), "-W", strconv.Itoa(secs), address}
}
