package controller

import "github.com/sarchlab/cachecoherence/coherence"

// permissible reports whether a block in state satisfies op without
// further coherence action: a Read hits on any readable state, while
// ReadExclusive and Write both require a writable state.
func permissible(op Op, state coherence.CState) bool {
	switch op {
	case Read:
		return state.Readable()
	case ReadExclusive, Write:
		return state.Writable()
	default:
		return false
	}
}

// exclusiveOp reports whether op requires a writable (E/M) outcome,
// i.e. triggers an EX_REQ/UPGRADE_REQ rather than an SH_REQ on miss.
func exclusiveOp(op Op) bool {
	return op == Write || op == ReadExclusive
}
