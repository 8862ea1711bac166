// Package setlock implements a striped set-lock array: one reader/writer
// lock per set index. Each controller creates its own Array over its own
// level's set count, so a stripe serializes activity on one set of one
// controller only; no stripe is shared across levels.
package setlock

import (
	"sync"
	"sync/atomic"
)

// Array is a striped lock keyed by set index.
type Array struct {
	stripes []stripe
}

type stripe struct {
	mu sync.RWMutex
	// queueDepth counts goroutines currently waiting to acquire this
	// stripe, exclusive or shared. Read by Lock to attribute
	// qbs-query-latency the way bank contention is charged before
	// granting an exclusive acquisition.
	queueDepth int32
}

// New creates a set-lock array with one stripe per set.
func New(numSets int) *Array {
	return &Array{stripes: make([]stripe, numSets)}
}

// NumSets returns the number of stripes.
func (a *Array) NumSets() int { return len(a.stripes) }

// RLock acquires the stripe for set in shared (core-scoped) mode,
// permitting concurrent L1-only transactions by other cores on the same
// set.
func (a *Array) RLock(set int) {
	s := &a.stripes[set]
	atomic.AddInt32(&s.queueDepth, 1)
	s.mu.RLock()
	atomic.AddInt32(&s.queueDepth, -1)
}

// RUnlock releases a shared acquisition.
func (a *Array) RUnlock(set int) {
	a.stripes[set].mu.RUnlock()
}

// Lock acquires the stripe for set in exclusive (stack-scoped) mode.
// Required for anything touching a level >= 2, any write in a
// write-through cache, or any operation atomically bracketing
// load+store. Returns the number of other holders found queued ahead of
// this acquisition at the moment it was requested, which callers may
// attribute to the qbs-query-latency statistic.
func (a *Array) Lock(set int) (queuedAhead int) {
	s := &a.stripes[set]
	queuedAhead = int(atomic.LoadInt32(&s.queueDepth))
	atomic.AddInt32(&s.queueDepth, 1)
	s.mu.Lock()
	atomic.AddInt32(&s.queueDepth, -1)
	return queuedAhead
}

// Unlock releases an exclusive acquisition.
func (a *Array) Unlock(set int) {
	a.stripes[set].mu.Unlock()
}

// Upgrade releases a shared hold and reacquires exclusively, returning
// the same queued-ahead count Lock would. This is explicitly
// non-atomic: between the release and the reacquire another holder may
// mutate the set, so callers must re-check state after Upgrade
// returns.
func (a *Array) Upgrade(set int) (queuedAhead int) {
	a.RUnlock(set)
	return a.Lock(set)
}

// Downgrade releases an exclusive hold and reacquires in shared mode.
// sync.RWMutex has no atomic exclusive->shared transition and the
// ecosystem offers no drop-in replacement (see DESIGN.md); this method
// therefore carries the same brief non-atomic window as Upgrade. Callers
// must re-check state after Downgrade returns for the same reason.
func (a *Array) Downgrade(set int) {
	a.Unlock(set)
	a.RLock(set)
}
