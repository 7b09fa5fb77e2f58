package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateEnforcesMinimumInterval(t *testing.T) {
	var runs int
	g := NewGate(time.Minute, func(ctx context.Context) (Report, error) {
		runs++
		return Report{}, nil
	})

	base := time.Now()
	if !g.trySyncAt(context.Background(), base) {
		t.Fatal("first call should sync")
	}
	if g.trySyncAt(context.Background(), base.Add(30*time.Second)) {
		t.Fatal("call inside the interval should be a no-op")
	}
	if !g.trySyncAt(context.Background(), base.Add(61*time.Second)) {
		t.Fatal("call after the interval should sync")
	}
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
}

func TestGateZeroIntervalAlwaysSyncs(t *testing.T) {
	var runs int
	g := NewGate(0, func(ctx context.Context) (Report, error) {
		runs++
		return Report{}, nil
	})

	now := time.Now()
	for i := 0; i < 3; i++ {
		if !g.trySyncAt(context.Background(), now) {
			t.Fatalf("call %d should sync with interval 0", i)
		}
	}
	if runs != 3 {
		t.Fatalf("runs = %d, want 3", runs)
	}
}

func TestGateSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	g := NewGate(0, func(ctx context.Context) (Report, error) {
		runs.Add(1)
		close(started)
		<-release
		return Report{}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.TrySync(context.Background())
	}()

	<-started
	// A second attempt while the first is in flight is skipped, not queued.
	if g.TrySync(context.Background()) {
		t.Error("concurrent sync attempt should be skipped")
	}
	close(release)
	wg.Wait()

	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", runs.Load())
	}
}

func TestGateReportsRunDespiteError(t *testing.T) {
	g := NewGate(time.Minute, func(ctx context.Context) (Report, error) {
		return Report{}, errors.New("disk on fire")
	})
	if !g.TrySync(context.Background()) {
		t.Fatal("a failing pass still counts as having run")
	}
	if g.TrySync(context.Background()) {
		t.Fatal("interval applies after a failed pass")
	}
}
