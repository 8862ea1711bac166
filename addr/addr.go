// Package addr provides pure address-decomposition helpers shared by every
// level of the cache hierarchy: set indexing, block alignment, and the
// external home-node lookup contract.
package addr

import "math/bits"

// Address is a byte address in the simulated machine's address space.
type Address uint64

// HomeLookup resolves an address to the id of the directory node
// responsible for it. The tag-directory home lookup is an external
// collaborator; this module only depends on its contract.
type HomeLookup func(a Address) int

// Geometry describes the block size and set count shared by one level of
// the cache hierarchy. All address-indexed tables key on the aligned
// address derived from the same Geometry.
type Geometry struct {
	BlockSize int
	NumSets   int
}

// log2BlockSize returns log2(g.BlockSize). BlockSize must be a power of
// two; callers validate this at configuration time (config.Validate).
func (g Geometry) log2BlockSize() uint {
	return uint(bits.TrailingZeros(uint(g.BlockSize)))
}

// Aligned clears the low log2(BlockSize) bits, yielding the block-aligned
// address that every address-indexed table (storage, MSHR, waiter queue)
// keys on.
func (g Geometry) Aligned(a Address) Address {
	mask := Address(g.BlockSize - 1)
	return a &^ mask
}

// Offset returns the byte offset of a within its containing block.
func (g Geometry) Offset(a Address) int {
	return int(a) & (g.BlockSize - 1)
}

// SetIndex returns (a >> log2(BlockSize)) & (NumSets - 1).
func (g Geometry) SetIndex(a Address) int {
	shifted := uint64(a) >> g.log2BlockSize()
	return int(shifted) & (g.NumSets - 1)
}

// Home delegates to the external tag-directory lookup.
func (g Geometry) Home(a Address, lookup HomeLookup) int {
	return lookup(a)
}
