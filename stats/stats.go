// Package stats implements the statistics-registry contract: a flat,
// string-keyed counter namespace that every controller updates under
// its own internal lock, outside the per-set stack lock.
package stats

import "sync"

// Registry is an in-process counter map. A production statistics
// registry would fan counters out to files or telemetry; this module
// only needs the contract to attribute timing and coherence traffic, so
// Registry is the narrow stand-in used throughout tests and the CLI.
type Registry struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewRegistry creates an empty counter registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]uint64)}
}

// Inc increments name by one.
func (r *Registry) Inc(name string) { r.Add(name, 1) }

// Add adds delta to name.
func (r *Registry) Add(name string, delta uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

// Get returns the current value of name.
func (r *Registry) Get(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Snapshot returns a copy of every counter currently set. Intended for
// go-cmp comparisons in tests.
func (r *Registry) Snapshot() map[string]uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]uint64, len(r.counters))
	for k, v := range r.counters {
		out[k] = v
	}
	return out
}

// Reset clears every counter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = make(map[string]uint64)
}
