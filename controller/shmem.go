package controller

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
	"github.com/sarchlab/cachecoherence/directory"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/simerr"
	"github.com/sarchlab/cachecoherence/stats"
	"github.com/sarchlab/cachecoherence/storage"
)

// descend routes a miss to whatever lies beyond this controller: the
// next inner-to-outer level if one exists, or DRAM/the directory
// network if this is the last level.
func (c *Controller) descend(req ShmemRequest) ShmemReply {
	if c.next != nil {
		return c.next.ShmemReq(req)
	}
	if c.dram != nil {
		return c.viaDRAM(req)
	}
	return c.viaDirectory(req)
}

// ShmemReq is the entry point a closer-to-core controller calls on this
// one after missing locally. It first looks for the line in its own
// store; a hit here may require snooping sibling private caches (an
// upgrade must invalidate every other sharer) before it can be
// returned. A miss releases this level's set lock before descending
// further out, since descending all the way to the directory may
// suspend the calling goroutine for an arbitrarily long round trip and
// this set must stay available to other requesters (including the
// directory's own reply handling) while that is in flight, then
// reacquires it to install the refill.
func (c *Controller) ShmemReq(req ShmemRequest) ShmemReply {
	set := c.set(req.Addr)

	if req.Writeback {
		c.locks.Lock(set)
		reply := c.applyWriteback(req)
		c.locks.Unlock(set)
		return reply
	}

	c.locks.Lock(set)
	if block := c.peekBlock(req.Addr); block != nil {
		if c.needsDirectoryUpgrade(req, block) {
			block.State = coherence.SharedUpgrading
			c.locks.Unlock(set)
			return c.upgradeViaDirectory(req)
		}
		reply := c.serveShmemHit(req, block)
		c.locks.Unlock(set)
		return reply
	}
	c.locks.Unlock(set)

	reply := c.descend(req)
	state := coherence.Shared
	if exclusiveOp(req.Op) {
		state = coherence.Modified
	}

	c.locks.Lock(set)
	defer c.locks.Unlock(set)
	if block := c.peekBlock(req.Addr); block == nil || !permissible(req.Op, block.State) {
		c.installRefill(req.Addr, reply.Data, state)
	}

	return ShmemReply{
		Where:   reply.Where,
		Latency: reply.Latency + mshr.Time(c.cfg.TagsAccessTime),
		State:   state,
		Data:    reply.Data,
	}
}

// applyWriteback merges a closer level's dirty eviction into this
// level's own copy, installing the line if this level does not already
// have it cached. It never grants permission back to the caller; the
// caller is discarding its own copy, not requesting one.
func (c *Controller) applyWriteback(req ShmemRequest) ShmemReply {
	if block := c.peekBlock(req.Addr); block != nil {
		copy(c.store.RawBlock(block), req.Data)
		block.State = coherence.Modified
		return ShmemReply{Where: c.ownHitWhere(), State: coherence.Modified}
	}

	result := c.store.Insert(req.Addr, req.Data)
	if result.Block == nil {
		return ShmemReply{Where: c.missWhere(), State: coherence.Modified}
	}
	result.Block.State = coherence.Modified
	if result.Evicted {
		c.evictVictim(result.Victim)
	}
	return ShmemReply{Where: c.missWhere(), State: coherence.Modified}
}

// needsDirectoryUpgrade reports whether a write hit against block must
// round-trip the tag directory rather than being promoted by snooping
// this node's own siblings. Only the last level ever holds a line the
// directory also knows other nodes may share; an Exclusive line here is
// already this node's sole copy and promotes silently, but a Shared (or
// already-upgrading) one may still be cached elsewhere in the system.
func (c *Controller) needsDirectoryUpgrade(req ShmemRequest, block *coherence.Block) bool {
	return exclusiveOp(req.Op) && c.IsLast && c.network != nil &&
		(block.State == coherence.Shared || block.State == coherence.SharedUpgrading)
}

func (c *Controller) serveShmemHit(req ShmemRequest, block *coherence.Block) ShmemReply {
	switch {
	case exclusiveOp(req.Op):
		c.invalidateSiblings(req.Addr, req.Requester, block)
		if block.State != coherence.Modified && block.State != coherence.Exclusive {
			c.stats.Inc(stats.CoherencyUpgrades)
		}
		block.State = coherence.Modified
	case !exclusiveOp(req.Op) && block.State == coherence.Modified:
		// A sibling below this level may hold the only fresh copy:
		// fetch it before serving a reader from a different core.
		c.downgradeSiblings(req.Addr, req.Requester, block)
		block.State = coherence.Owned
		c.stats.Inc(stats.CoherencyDowngrades)
	case !exclusiveOp(req.Op) && block.State == coherence.Exclusive:
		block.State = coherence.Shared
	}

	data := c.store.RawBlock(block)
	out := make([]byte, len(data))
	copy(out, data)

	c.statsMu.Lock()
	c.stats.Inc(stats.UncoreRequests)
	c.stats.Add(stats.SnoopLatency, uint64(c.cfg.DataAccessTime))
	c.statsMu.Unlock()

	grant := coherence.Shared
	if exclusiveOp(req.Op) {
		grant = coherence.Modified
	}
	return ShmemReply{
		Where:   c.ownHitWhere(),
		Latency: mshr.Time(c.cfg.DataAccessTime),
		State:   grant,
		Data:    out,
	}
}

// invalidateSiblings drops addr from every sibling (previous-level)
// controller other than the requester's own, folding any dirty data it
// held directly into target (which this controller already holds
// locked) rather than writing it back through the normal descent path.
// An upgrade must snoop and invalidate every other private sharer; with
// many sharers this broadcast is fanned out across goroutines rather
// than walked one at a time, since each sibling's own stack lock is
// independent of this one. Merging the result in place (guarded by mu)
// avoids routing the write back down through this same controller's
// ShmemReq a second time while its lock is held.
func (c *Controller) invalidateSiblings(a addr.Address, requester int, target *coherence.Block) {
	var g errgroup.Group
	var mu sync.Mutex
	wroteback := false

	for _, p := range c.prev {
		if p.CoreID == requester {
			continue
		}
		p := p
		g.Go(func() error {
			data, dirty := p.snoopInvalidate(a)
			if !dirty {
				return nil
			}
			mu.Lock()
			copy(c.store.RawBlock(target), data)
			wroteback = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if wroteback {
		c.stats.Inc(stats.CoherencyWritebacks)
	}
}

// downgradeSiblings fetches addr's fresh data from whichever sibling
// (other than the requester) currently holds it dirty, merging it into
// target, and demotes that sibling to Owned rather than invalidating it:
// a plain read does not need to evict the existing holder's copy.
func (c *Controller) downgradeSiblings(a addr.Address, requester int, target *coherence.Block) {
	var g errgroup.Group
	var mu sync.Mutex
	found := false

	for _, p := range c.prev {
		if p.CoreID == requester {
			continue
		}
		p := p
		g.Go(func() error {
			data, dirty := p.snoopDowngrade(a)
			if !dirty {
				return nil
			}
			mu.Lock()
			copy(c.store.RawBlock(target), data)
			found = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if found {
		c.stats.Inc(stats.CoherencyWritebacks)
	}
}

// snoopDowngrade reports addr's data and dirtiness from this
// controller's own store without invalidating it, demoting a dirty
// block to Owned so it survives as a read-only-from-others copy.
func (c *Controller) snoopDowngrade(a addr.Address) (data []byte, dirty bool) {
	set := c.set(a)
	c.locks.Lock(set)
	defer c.locks.Unlock(set)

	block := c.peekBlock(a)
	if block == nil {
		return nil, false
	}
	dirty = block.State.Dirty()
	if dirty {
		raw := c.store.RawBlock(block)
		data = make([]byte, len(raw))
		copy(data, raw)
		block.State = coherence.Owned
	}
	return data, dirty
}

// snoopInvalidate drops addr from this controller's own store if
// present, returning its data and whether it was dirty. It never
// forwards a writeback itself; the caller (the next level out, already
// holding its own lock for this address) is responsible for folding
// dirty data into its own copy.
func (c *Controller) snoopInvalidate(a addr.Address) (data []byte, dirty bool) {
	set := c.set(a)
	c.locks.Lock(set)
	defer c.locks.Unlock(set)

	block := c.peekBlock(a)
	if block == nil {
		return nil, false
	}
	dirty = block.State.Dirty()
	if dirty {
		raw := c.store.RawBlock(block)
		data = make([]byte, len(raw))
		copy(data, raw)
	}
	c.store.Invalidate(a)
	c.stats.Inc(stats.CoherencyInvalidates)
	return data, dirty
}

// invalidateLocal drops addr from this controller's own store and from
// each previous-level controller's store (via snoopInvalidate, one level
// up), folding any dirty data a previous level held into this copy and
// charging a writeback to the next level out if the result is dirty.
// Used for directory-issued INV_REQ handling at the last level, where
// there is no caller-held lock on this same controller to worry about
// reentering.
func (c *Controller) invalidateLocal(a addr.Address) {
	set := c.set(a)
	c.locks.Lock(set)
	defer c.locks.Unlock(set)

	block := c.peekBlock(a)
	if block == nil {
		return
	}
	dirty := block.State.Dirty()
	for _, p := range c.prev {
		if data, d := p.snoopInvalidate(a); d {
			copy(c.store.RawBlock(block), data)
			dirty = true
		}
	}
	if dirty {
		c.propagateDirty(a, c.store.RawBlock(block))
	}
	c.store.Invalidate(a)
	c.stats.Inc(stats.CoherencyInvalidates)
}

// installRefill allocates a line for addr using data and state, handing
// any evicted victim to evictVictim. A copy of addr already in the store
// is dropped first, so the refill replaces it rather than sitting beside
// it in a second way.
func (c *Controller) installRefill(a addr.Address, data []byte, state coherence.CState) {
	c.store.Invalidate(a)
	result := c.store.Insert(a, data)
	if result.Block == nil {
		return
	}
	result.Block.State = state
	if result.Evicted {
		c.evictVictim(result.Victim)
	}
}

// evictVictim disposes of a line pushed out by a new install: dirty
// data (written at this level, or held in a Modified/Owned state) is
// written back (to the next level for an inner cache, to DRAM or the
// directory for the last level); clean data is simply dropped.
func (c *Controller) evictVictim(v storage.Victim) {
	c.statsMu.Lock()
	c.stats.Inc(stats.EvictState(v.State.String()))
	if v.Flags.Has(coherence.FlagWarmup) {
		c.stats.Inc(stats.EvictWarmup)
	}
	if v.Flags.Has(coherence.FlagPrefetch) {
		c.stats.Inc(stats.EvictPrefetch)
	}
	c.statsMu.Unlock()

	if !v.Dirty && !v.State.Dirty() {
		return
	}

	c.statsMu.Lock()
	c.stats.Inc(stats.DirtyEvicts)
	c.stats.Inc(stats.Writebacks)
	c.statsMu.Unlock()

	c.propagateDirty(v.Addr, v.Data)
}

// propagateDirty pushes dirty data to whatever sits beyond this
// controller: DRAM or the directory network at the last level, the next
// level out otherwise. An inner, write-through level has already
// propagated every store as it happened, so there is nothing further to
// send for it.
func (c *Controller) propagateDirty(a addr.Address, data []byte) {
	if c.IsLast {
		if c.dram != nil {
			c.dram.PutData(a, c.CoreID, data, 0)
			return
		}
		if c.network != nil {
			c.network.Send(directory.Message{
				Tag:            directory.WbReq,
				SenderID:       c.homeID(),
				ReceiverHomeID: c.homeLookup(a),
				Address:        a,
				DataBlock:      data,
			})
		}
		return
	}
	if c.cfg.WriteThrough {
		return
	}
	if c.next == nil {
		panic(simerr.New(simerr.DataLoss, uint64(a), "dirty",
			"dirty line evicted from non-last level with no next-level sink"))
	}
	c.next.ShmemReq(ShmemRequest{
		Requester: c.CoreID,
		Addr:      a,
		Writeback: true,
		Data:      data,
	})
}

// viaDRAM services a last-level miss directly against DRAM, bypassing
// the directory entirely.
func (c *Controller) viaDRAM(req ShmemRequest) ShmemReply {
	buf := make([]byte, c.geometry.BlockSize)
	latency, where := c.dram.GetData(req.Addr, req.Requester, buf, req.TIssue, 0)
	state := coherence.Shared
	if exclusiveOp(req.Op) {
		state = coherence.Modified
	}
	return ShmemReply{Where: where, Latency: latency, State: state, Data: buf}
}

// homeID is this controller's directory-network address. Only
// meaningful for last-level controllers attached to a Network.
func (c *Controller) homeID() int { return c.HomeID }
