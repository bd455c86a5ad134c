package probe

import (
	"context"
	"runtime"
	"testing"
	"time"
)

func TestPingArgs(t *testing.T) {
	args := pingArgs("10.0.0.1", 3, 1500*time.Millisecond)
	if runtime.GOOS == "windows" {
		want := []string{"-n", "3", "-w", "1500", "10.0.0.1"}
		for i, a := range want {
			if args[i] != a {
				t.Fatalf("args = %v, want %v", args, want)
			}
		}
		return
	}
	// Sub-second timeouts round up to a whole second.
	want := []string{"-c", "3", "-W", "2", "10.0.0.1"}
	for i, a := range want {
		if args[i] != a {
			t.Fatalf("args = %v, want %v", args, want)
		}
	}
}

func TestPingArgsMinimumTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix ping flags only")
	}
	args := pingArgs("10.0.0.1", 1, 100*time.Millisecond)
	if args[3] != "1" {
		t.Fatalf("timeout arg = %s, want floor of 1s", args[3])
	}
}

func TestPingProberEmptyAddress(t *testing.T) {
	p := NewPingProber()
	if p.Probe(context.Background(), "", 1, time.Second) {
		t.Fatal("empty address must be unreachable")
	}
}
