package concurrency

import "sync/atomic"

// Gate is a non-blocking in-flight guard. A ticker that fires while the
// previous run still holds the gate gets a coalesced no-op instead of a
// second concurrent run.
type Gate struct {
	busy atomic.Bool
}

// TryAcquire claims the gate, returning false when a run is already in flight.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the gate for the next run.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// InFlight reports whether the gate is currently held.
func (g *Gate) InFlight() bool {
	return g.busy.Load()
}
