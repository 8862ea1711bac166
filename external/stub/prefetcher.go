package stub

import (
	"sync"

	"github.com/sarchlab/cachecoherence/addr"
)

// StridePrefetcher trains on the stride between consecutive accesses
// from one stream and, once the same stride repeats degree times in a
// row, fires the next address along that stride. It satisfies
// external.Prefetcher.
type StridePrefetcher struct {
	mu sync.Mutex

	degree int
	last   addr.Address
	primed bool // last holds an observed access
	stride addr.Address
	streak int
	queued []addr.Address
}

// NewStridePrefetcher creates a prefetcher that confirms a stride
// after it has repeated degree times before firing ahead of it.
func NewStridePrefetcher(degree int) *StridePrefetcher {
	if degree <= 0 {
		degree = 1
	}
	return &StridePrefetcher{degree: degree}
}

// Train observes one access. hit is ignored: this stub trains on the
// address stream alone, not on hit/miss outcome.
func (p *StridePrefetcher) Train(a addr.Address, isWrite bool, hit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.primed {
		stride := a - p.last
		if stride == p.stride && stride != 0 {
			p.streak++
		} else {
			p.stride = stride
			p.streak = 1
		}
		if p.streak >= p.degree {
			p.queued = append(p.queued, a+p.stride)
			p.streak = 0
		}
	}
	p.last = a
	p.primed = true
}

// Fire returns the next queued prefetch address, if any is ready.
func (p *StridePrefetcher) Fire() (addr.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queued) == 0 {
		return 0, false
	}
	a := p.queued[0]
	p.queued = p.queued[1:]
	return a, true
}
