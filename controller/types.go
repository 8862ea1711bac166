// Package controller implements the per-level cache controller: the
// permission predicate, miss descent, coherence-message handling,
// eviction, writeback, and cross-level invariant maintenance that drive
// the rest of this module's packages.
package controller

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
)

// Op is the operation a core requests of MemOp.
type Op int

const (
	Read Op = iota
	ReadExclusive
	Write
)

// LockSignal controls stack-lock retention across an atomic pair of
// MemOp calls.
type LockSignal int

const (
	// LockNone means this call neither retains nor expects the stack
	// lock held across calls.
	LockNone LockSignal = iota
	// LockHold retains the stack lock after this call returns.
	LockHold
	// LockRelease expects the stack lock already held by the caller and
	// releases it before returning.
	LockRelease
)

// Request is the argument set to MemOp.
type Request struct {
	CoreID   int
	Lock     LockSignal
	Op       Op
	Addr     addr.Address
	Offset   int
	Buf      []byte
	Modeled  bool
	Now      mshr.Time
	Prefetch bool
}

// Result is the return of MemOp: the semantic hit location plus the
// simulated clock after the access, which may have advanced well beyond
// the issue time if the request had to block waiting for the network
// thread.
type Result struct {
	Where   hitwhere.Where
	Latency mshr.Time
	Now     mshr.Time
}

// ShmemRequest is the argument set a downstream controller passes to an
// upstream controller's ShmemReq entry point.
type ShmemRequest struct {
	Requester    int // opaque id of the calling (lower) level/core
	Op           Op
	Addr         addr.Address
	Modeled      bool
	Count        int
	PrefetchKind int
	TIssue       mshr.Time
	HaveLock     bool
	AuxAddr1     addr.Address
	AuxAddr2     addr.Address
	HasAux       bool
	// NoEvict carries the peer addresses of a PIC operation. No refill or
	// victim-selection code reads it, so it does not keep those addresses
	// from being evicted.
	NoEvict []addr.Address
	// Writeback marks a pure dirty-data flush from a closer level's
	// eviction rather than a demand access: ShmemReq merges Data into
	// its own copy and grants nothing back to the caller.
	Writeback bool
	Data      []byte
}

// ShmemReply is the return of ShmemReq.
type ShmemReply struct {
	Where   hitwhere.Where
	Latency mshr.Time
	// State is the coherence state the requester should install the
	// refilled line in: Shared for a Read, Modified for a
	// ReadExclusive/Write.
	State coherence.CState
	Data  []byte
}
