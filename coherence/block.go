package coherence

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachecoherence/addr"
)

// Block is one cache line's coherence metadata. It is always paired with
// an akita cache.Block, which continues to own tag/validity/LRU
// bookkeeping; Block adds exactly the fields a coherence protocol needs
// beyond that: state, flags, owner, a per-byte touch bitmap, and the
// optional directory-of-sharers index list.
type Block struct {
	Tag        *akitacache.Block
	State      CState
	Flags      BlockFlags
	OwnerID    int
	UsedBitmap uint64
	// CachedLocs holds indices into this controller's previous-level
	// controller list, present only when directory-of-sharers tracking
	// (ATD / per-sharer accounting) is enabled for this level.
	CachedLocs []int
}

// Addr returns the block-aligned address this metadata describes. The
// akita Block.Tag field stores the aligned address directly.
func (b *Block) Addr() addr.Address {
	if b.Tag == nil {
		return 0
	}
	return addr.Address(b.Tag.Tag)
}

// Reset clears coherence metadata back to the state a freshly evicted
// slot should carry, without touching the underlying akita tag slot
// (the caller, storage.Store, owns that lifecycle).
func (b *Block) Reset() {
	b.State = Invalid
	b.Flags = 0
	b.OwnerID = 0
	b.UsedBitmap = 0
	b.CachedLocs = nil
}

// MarkTouched sets the used bits for [offset, offset+length) within the
// block, clamped to 64 sub-units (one bit per 1/64th of the block,
// fine enough granularity for any reasonable block size).
func (b *Block) MarkTouched(offset, length, blockSize int) {
	if blockSize <= 0 {
		return
	}
	subUnit := blockSize / 64
	if subUnit == 0 {
		subUnit = 1
	}
	start := offset / subUnit
	end := (offset + length - 1) / subUnit
	for i := start; i <= end && i < 64; i++ {
		b.UsedBitmap |= 1 << uint(i)
	}
}
