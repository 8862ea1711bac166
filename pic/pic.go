// Package pic implements the pure, stateless policy decisions of the
// processing-in-cache operator pipeline: which opcodes exist, where a
// bulk operator executes ("do_here"), how its two or three addresses
// co-locate into a bank under each bank-co-location policy, and the
// heuristic dummy address used to route a cross-slice search through
// the directory. The stateful side (MSHR gating, the actual
// sub-reads/sub-writes, statistics) lives in controller, which calls
// into this package for the decisions themselves.
package pic

import "github.com/sarchlab/cachecoherence/addr"

// Opcode names a bulk in-cache operator.
type Opcode string

const (
	Copy     Opcode = "copy"
	Compare  Opcode = "cmp"
	Search   Opcode = "search"
	Logical  Opcode = "logical"
	ClMult   Opcode = "clmul"
)

// Arity reports how many addresses opcode consumes: 2 for binary ops,
// 3 for ternary ones.
func (o Opcode) Arity() int {
	if o == ClMult {
		return 3
	}
	return 2
}

// BankPolicy names a bank co-location accounting policy.
type BankPolicy string

const (
	// AllWaysOneBank treats every way of a set as the same bank: two
	// addresses co-locate iff they fall in the same set.
	AllWaysOneBank BankPolicy = "all_ways_one_bank"
	// MoreSetsOneBank treats a contiguous run of sets as one bank,
	// widening the co-location window beyond a single set.
	MoreSetsOneBank BankPolicy = "more_sets_one_bank"
)

// setsPerBank is the number of consecutive sets folded into one bank
// under MoreSetsOneBank. A production config would expose this; absent
// one, this mirrors the single ratio the AllWaysOneBank policy implies
// (one set) scaled up by a small, fixed factor.
const setsPerBank = 4

// Bank returns the bank index a falls into under geometry/policy.
func Bank(a addr.Address, g addr.Geometry, policy BankPolicy) int {
	set := g.SetIndex(a)
	if policy == MoreSetsOneBank {
		return set / setsPerBank
	}
	return set
}

// SameBank reports whether a1 and a2 fall in the same bank under
// geometry/policy, the condition the in-bank co-location statistics
// (pic_ops_in_bank_<op>_<policy>) key on.
func SameBank(a1, a2 addr.Address, g addr.Geometry, policy BankPolicy) bool {
	return Bank(a1, g, policy) == Bank(a2, g, policy)
}

// DoHere decides whether level should execute a pic_single_op locally
// rather than forwarding it to the next level or the directory. Search
// always executes at the last level; other opcodes execute locally
// whenever either the level is private (so there is no cross-sharer
// concern) or, at a shared level, every participating address shares a
// home node.
func DoHere(opcode Opcode, isLast bool, shared bool, sameHome bool) bool {
	if opcode == Search {
		return isLast
	}
	if !shared {
		return true
	}
	return sameHome
}

// DummySearchAddr fabricates the synthetic secondary address used to
// route a cross-slice Search through the directory when a1 and a2 map
// to different home nodes: a2 offset by (home(a1) - home(a2)) block
// widths. This is a heuristic carried over from the system this engine
// was ported from, not a derived formula; see DESIGN.md.
func DummySearchAddr(homeA1, homeA2 int, a2 addr.Address, blockSize int) addr.Address {
	delta := int64(homeA1-homeA2) * int64(blockSize)
	return addr.Address(int64(a2) + delta)
}

// KeyMissEstimate reports whether writes crosses the configured
// microbenchmark key-miss boundary. divisor == 0 disables the
// estimator entirely (its formula assumes a specific benchmark layout
// and must not fire unless a config opts in explicitly).
func KeyMissEstimate(writes uint64, divisor int) bool {
	if divisor <= 0 {
		return false
	}
	return writes%uint64(divisor) == 0
}
