// Package stub provides deterministic, in-process stand-ins for every
// external collaborator this module depends on but does not implement:
// a synthetic core instruction stream, a fixed-latency DRAM backing
// store, and a loopback directory network. They exist for tests and
// the cmd/cachesim demo only; none model anything beyond what a
// coherence timing test needs to drive.
package stub

import (
	"sync"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
)

// DRAM is a fixed-latency in-memory byte store satisfying
// external.DRAMController. It keeps only as many bytes as tests
// actually round-trip; modelling real DRAM timing/row-buffer behavior
// is out of scope.
type DRAM struct {
	mu      sync.Mutex
	latency mshr.Time
	mem     map[addr.Address][]byte
}

// NewDRAM creates a DRAM stub with a fixed per-access latency.
func NewDRAM(latency mshr.Time) *DRAM {
	return &DRAM{latency: latency, mem: make(map[addr.Address][]byte)}
}

// GetData copies len(buf) bytes from addr's backing line into buf,
// zero-filling on first touch, and reports a fixed latency and the
// Dram hit-location.
func (d *DRAM) GetData(a addr.Address, coreID int, buf []byte, tIssue mshr.Time, perfToken uint64) (mshr.Time, hitwhere.Where) {
	d.mu.Lock()
	defer d.mu.Unlock()

	line, ok := d.mem[a]
	if !ok {
		line = make([]byte, len(buf))
		d.mem[a] = line
	}
	copy(buf, line)
	return d.latency, hitwhere.Dram
}

// PutData stores buf as addr's backing line.
func (d *DRAM) PutData(a addr.Address, coreID int, buf []byte, tIssue mshr.Time) (mshr.Time, hitwhere.Where) {
	d.mu.Lock()
	defer d.mu.Unlock()

	line := make([]byte, len(buf))
	copy(line, buf)
	d.mem[a] = line
	return d.latency, hitwhere.Dram
}
