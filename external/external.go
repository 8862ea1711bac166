// Package external declares the contracts of every collaborator outside
// this module's scope: the CPU performance model, the DRAM controller,
// the tag-directory home lookup, the prefetcher, the statistics
// registry, the configuration loader, the CAP/FSM state-matching
// accelerator, and the network layer. This module depends on these
// contracts only; concrete implementations live outside it except for
// the deterministic stand-ins under external/stub used by tests and the
// CLI demo.
package external

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/directory"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
)

// CoreModel is the CPU performance model that issues memory requests.
// This engine is the callee of mem_op/pic_op, not the caller of
// CoreModel; the interface exists so test harnesses can drive a
// synthetic instruction stream through it.
type CoreModel interface {
	// NextAccess yields the next (address, isWrite) pair to issue, or ok
	// = false when the synthetic program has finished.
	NextAccess() (a addr.Address, isWrite bool, ok bool)
}

// DRAMController is the external DRAM model a last-level controller
// falls back on when it is not attached to a directory network.
type DRAMController interface {
	GetData(a addr.Address, coreID int, buf []byte, tIssue mshr.Time, perfToken uint64) (latency mshr.Time, where hitwhere.Where)
	PutData(a addr.Address, coreID int, buf []byte, tIssue mshr.Time) (latency mshr.Time, where hitwhere.Where)
}

// Prefetcher trains on observed accesses and proposes addresses to fetch
// ahead of demand.
type Prefetcher interface {
	Train(a addr.Address, isWrite bool, hit bool)
	// Fire returns the next address to prefetch, if any is ready.
	Fire() (a addr.Address, ok bool)
}

// StatRegistry is the external statistics-registry contract.
// stats.Registry in this module satisfies it directly.
type StatRegistry interface {
	Inc(name string)
	Add(name string, delta uint64)
	Get(name string) uint64
}

// ConfigSource is the external configuration-loader contract, for
// components that only need read access to recognized keys. No type in
// this module implements it; config.Config exposes its keys as struct
// fields.
type ConfigSource interface {
	Get(key string) (value string, ok bool)
}

// CAPMatcher is the instruction-level CAP/FSM state-matching accelerator.
// It is opaque to this engine: no controller code constructs, inspects
// or calls a matcher, and no token is forwarded to one.
type CAPMatcher interface {
	Observe(token uint64, a addr.Address)
}

// Network is the tag-directory network transport; its message tag set
// is defined in package directory.
type Network interface {
	Send(msg directory.Message)
	// Inbound returns the channel this controller's network thread
	// drains for inbound directory messages.
	Inbound(receiverHomeID int) <-chan directory.Message
}
