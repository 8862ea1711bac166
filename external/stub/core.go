package stub

import "github.com/sarchlab/cachecoherence/addr"

// Core is a deterministic synthetic instruction stream satisfying
// external.CoreModel: it replays a fixed sequence of (address,
// isWrite) pairs, useful for reproducible tests and the CLI demo
// workload.
type Core struct {
	accesses []access
	pos      int
}

type access struct {
	addr    addr.Address
	isWrite bool
}

// NewCore creates a Core that will replay nothing until accesses are
// appended with Read/Write.
func NewCore() *Core { return &Core{} }

// Read appends a load of a to the stream.
func (c *Core) Read(a addr.Address) *Core {
	c.accesses = append(c.accesses, access{addr: a})
	return c
}

// Write appends a store to a to the stream.
func (c *Core) Write(a addr.Address) *Core {
	c.accesses = append(c.accesses, access{addr: a, isWrite: true})
	return c
}

// NextAccess yields the next queued access, or ok = false once the
// stream is exhausted.
func (c *Core) NextAccess() (a addr.Address, isWrite bool, ok bool) {
	if c.pos >= len(c.accesses) {
		return 0, false, false
	}
	next := c.accesses[c.pos]
	c.pos++
	return next.addr, next.isWrite, true
}

// Striding returns a Core that issues count accesses starting at base,
// stepping by stride bytes; every period-th access is a write and the
// rest are reads (period <= 0 means every access is a read). Used to build
// reproducible demo/benchmark workloads without a trace file.
func Striding(base addr.Address, stride addr.Address, count int, period int) *Core {
	c := NewCore()
	for i := 0; i < count; i++ {
		a := base + addr.Address(i)*stride
		if period > 0 && i%period == period-1 {
			c.Write(a)
		} else {
			c.Read(a)
		}
	}
	return c
}
