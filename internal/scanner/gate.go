package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SyncFunc runs one reconciliation pass.
type SyncFunc func(ctx context.Context) (Report, error)

// Gate enforces the minimum interval between sync passes and keeps them
// single-flight. Sync is lazy and demand-driven: the gate is checked on
// startup prewarm and before serving requests, never from a background
// timer, so a denied or in-flight check is simply a no-op for the caller.
type Gate struct {
	limiter *rate.Limiter
	busy    sync.Mutex // held for the duration of a pass; TryLock skips
	run     SyncFunc
}

// NewGate wraps run with a minimum-interval, single-flight gate.
// interval 0 allows every call to sync (still one at a time).
func NewGate(interval time.Duration, run SyncFunc) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		// Burst 1: the limiter starts full, so the first call syncs
		// immediately; Allow is the single atomic check-and-set that
		// keeps two concurrent callers from both consuming the slot.
		limiter: rate.NewLimiter(limit, 1),
		run:     run,
	}
}

// TrySync runs the sync pass iff the interval has elapsed and no pass is in
// flight. Returns whether a pass ran. A failed pass is logged and the
// interval still applies; queries keep serving the previous snapshot.
func (g *Gate) TrySync(ctx context.Context) bool {
	return g.trySyncAt(ctx, time.Now())
}

func (g *Gate) trySyncAt(ctx context.Context, now time.Time) bool {
	if !g.busy.TryLock() {
		return false
	}
	defer g.busy.Unlock()

	if !g.limiter.AllowN(now, 1) {
		return false
	}

	if _, err := g.run(ctx); err != nil {
		scanLog.Error("sync_failed", slog.String("error", err.Error()))
	}
	return true
}
