package nutrition

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Guard admits one analysis at a time. Overlapping calls are rejected,
// not queued.
type Guard struct {
	sem *semaphore.Weighted
}

// NewGuard returns an idle Guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Do runs fn if no other call is running, and returns ErrAnalysisInFlight
// otherwise.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if !g.sem.TryAcquire(1) {
		RejectedOverlaps.Inc()
		return ErrAnalysisInFlight
	}
	defer g.sem.Release(1)
	return fn(ctx)
}

// Busy reports whether a call is running.
func (g *Guard) Busy() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}
