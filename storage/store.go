// Package storage implements the associative tag+data cache store:
// lookup, insert-with-eviction, invalidate, peek, and the pluggable
// replacement policy. Tag/validity/LRU bookkeeping is delegated to
// akita's cache directory; this package adds MSI coherence metadata
// (coherence.Block) and a fault-injection hook beyond that.
package storage

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
)

// FaultInjector corrupts a buffer before it is returned to the caller on
// a read, transparent to everything above. nil means no injection.
type FaultInjector interface {
	Corrupt(a addr.Address, buf []byte)
}

// Store is one cache level's associative tag+data array.
type Store struct {
	geometry addr.Geometry
	assoc    int

	directory *akitacache.DirectoryImpl
	data      [][]byte
	meta      []coherence.Block

	injector FaultInjector
}

// New creates a Store with the given geometry, associativity, and victim
// finder (replacement policy).
func New(geometry addr.Geometry, assoc int, victimFinder akitacache.VictimFinder) *Store {
	totalBlocks := geometry.NumSets * assoc

	data := make([][]byte, totalBlocks)
	for i := range data {
		data[i] = make([]byte, geometry.BlockSize)
	}

	return &Store{
		geometry: geometry,
		assoc:    assoc,
		directory: akitacache.NewDirectory(
			geometry.NumSets, assoc, geometry.BlockSize, victimFinder,
		),
		data: data,
		meta: make([]coherence.Block, totalBlocks),
	}
}

// SetInjector installs (or clears, with nil) the fault-injection hook.
func (s *Store) SetInjector(inj FaultInjector) { s.injector = inj }

func (s *Store) index(tag *akitacache.Block) int {
	return tag.SetID*s.assoc + tag.WayID
}

// Peek looks up addr's block without any timing side effect; returns
// nil if absent or invalid.
func (s *Store) Peek(a addr.Address) *coherence.Block {
	blockAddr := s.geometry.Aligned(a)
	tag := s.directory.Lookup(0, uint64(blockAddr))
	if tag == nil || !tag.IsValid {
		return nil
	}
	b := &s.meta[s.index(tag)]
	b.Tag = tag
	return b
}

// Touch marks the block as recently used for the replacement policy
// without otherwise mutating it. Access does not update replacement
// state, so the hit path calls Touch after Access.
func (s *Store) Touch(b *coherence.Block) {
	if b != nil && b.Tag != nil {
		s.directory.Visit(b.Tag)
	}
}

// Access performs a data-level read or write against an already-present
// block (the caller has already established a hit via Peek/permission
// check). On a read, the fault injector (if any) runs over the returned
// bytes before they reach the caller.
func (s *Store) Access(b *coherence.Block, isWrite bool, offset int, buf []byte) {
	raw := s.data[s.index(b.Tag)]
	if isWrite {
		copy(raw[offset:offset+len(buf)], buf)
		b.Tag.IsDirty = true
		return
	}
	copy(buf, raw[offset:offset+len(buf)])
	if s.injector != nil {
		s.injector.Corrupt(b.Addr(), buf)
	}
}

// RawBlock returns the full block-sized backing buffer for b, used by
// writeback/flush paths that must ship or inspect the whole line rather
// than a sub-range.
func (s *Store) RawBlock(b *coherence.Block) []byte {
	return s.data[s.index(b.Tag)]
}

// Victim is a snapshot of an evicted block's state, taken before its
// storage slot is overwritten by the incoming install. It holds plain
// values rather than a *coherence.Block, because the akita tag slot and
// data buffer are about to be reused in place for the new line.
type Victim struct {
	Addr    addr.Address
	State   coherence.CState
	Flags   coherence.BlockFlags
	OwnerID int
	Dirty   bool
	Data    []byte
}

// InstallResult is the outcome of Insert.
type InstallResult struct {
	Block   *coherence.Block
	Evicted bool
	Victim  Victim // meaningful only if Evicted
}

// Insert installs data for addr, selecting a victim by the replacement
// policy if the set is full. The caller receives both the newly
// installed block and any victim for downstream coherence handling
// (writeback/invalidate).
func (s *Store) Insert(a addr.Address, data []byte) InstallResult {
	blockAddr := s.geometry.Aligned(a)
	tag := s.directory.FindVictim(uint64(blockAddr))
	if tag == nil {
		return InstallResult{}
	}

	idx := s.index(tag)
	wasValid := tag.IsValid

	var result InstallResult
	if wasValid {
		victimMeta := s.meta[idx]
		victimData := make([]byte, len(s.data[idx]))
		copy(victimData, s.data[idx])
		result.Evicted = true
		result.Victim = Victim{
			Addr:    addr.Address(tag.Tag),
			State:   victimMeta.State,
			Flags:   victimMeta.Flags,
			OwnerID: victimMeta.OwnerID,
			Dirty:   tag.IsDirty,
			Data:    victimData,
		}
	}

	if len(data) > 0 {
		copy(s.data[idx], data)
	}
	tag.Tag = uint64(blockAddr)
	tag.IsValid = true
	tag.IsDirty = false
	s.directory.Visit(tag)

	s.meta[idx] = coherence.Block{Tag: tag}
	result.Block = &s.meta[idx]
	return result
}

// Invalidate drops addr's block if present; fails silently otherwise.
func (s *Store) Invalidate(a addr.Address) {
	blockAddr := s.geometry.Aligned(a)
	tag := s.directory.Lookup(0, uint64(blockAddr))
	if tag == nil || !tag.IsValid {
		return
	}
	idx := s.index(tag)
	tag.IsValid = false
	tag.IsDirty = false
	s.meta[idx].Reset()
}

// Geometry returns the store's address geometry.
func (s *Store) Geometry() addr.Geometry { return s.geometry }

// Associativity returns the number of ways per set.
func (s *Store) Associativity() int { return s.assoc }
