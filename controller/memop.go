package controller

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/stats"
)

// MemOp is the entry point a core's user thread calls for every load and
// store. It charges tag-access latency, attempts a fast shared-locked
// hit, and on miss escalates to an exclusive-locked slow path that
// reserves an MSHR entry, descends to the next level (or the directory,
// at the last level), and installs the refill.
func (c *Controller) MemOp(req Request) Result {
	set := c.set(req.Addr)
	now := req.Now + mshr.Time(c.cfg.TagsAccessTime)

	switch req.Lock {
	case LockRelease:
		// The caller already holds this set exclusively from a LockHold call.
		defer c.locks.Unlock(set)
	default:
		c.locks.RLock(set)
		if block := c.peekBlock(req.Addr); req.Lock == LockNone && block != nil && permissible(req.Op, block.State) {
			now = c.serviceHit(req, block, now)
			c.locks.RUnlock(set)
			return Result{Where: c.ownHitWhere(), Latency: now - req.Now, Now: now}
		}
		queuedAhead := c.locks.Upgrade(set)
		c.stats.Add(stats.QBSQueryLatency, uint64(queuedAhead))
		if req.Lock == LockNone {
			defer c.locks.Unlock(set)
		}
	}

	// Re-check: another goroutine may have installed the line between the
	// shared and exclusive acquisitions.
	if block := c.peekBlock(req.Addr); block != nil && permissible(req.Op, block.State) {
		now = c.serviceHit(req, block, now)
		return Result{Where: c.ownHitWhere(), Latency: now - req.Now, Now: now}
	}

	return c.serviceMiss(req, set, now)
}

func (c *Controller) serviceHit(req Request, block *coherence.Block, now mshr.Time) mshr.Time {
	now += mshr.Time(c.cfg.DataAccessTime)
	isWrite := req.Op != Read
	c.store.Access(block, isWrite, req.Offset, req.Buf)
	c.store.Touch(block)
	block.MarkTouched(req.Offset, len(req.Buf), c.geometry.BlockSize)

	c.statsMu.Lock()
	if isWrite {
		c.stats.Inc(stats.Stores)
	} else {
		c.stats.Inc(stats.Loads)
	}
	if block.Flags.Has(coherence.FlagPrefetch) {
		c.stats.Inc(stats.HitsPrefetch)
	}
	c.statsMu.Unlock()

	if c.prefetcher != nil {
		c.prefetcher.Train(req.Addr, isWrite, true)
	}
	return now
}

// ownHitWhere reports the HitWhere value for a hit serviced by this
// controller's own store, distinguishing a core's private levels from a
// shared level serving one of several sharers.
func (c *Controller) ownHitWhere() hitwhere.Where {
	switch {
	case c.Name == "L1":
		return hitwhere.L1Own
	case c.Name == "L2":
		return hitwhere.L2Own
	case c.IsLast:
		return hitwhere.LLCOwn
	default:
		return hitwhere.LLCOwn
	}
}

func (c *Controller) missWhere() hitwhere.Where {
	switch c.Name {
	case "L1":
		return hitwhere.MissL1
	case "L2":
		return hitwhere.MissL2
	default:
		return hitwhere.MissLLC
	}
}

func (c *Controller) serviceMiss(req Request, set int, now mshr.Time) Result {
	isWrite := req.Op != Read

	c.statsMu.Lock()
	if isWrite {
		c.stats.Inc(stats.StoreMisses)
		if c.missMSHR.Outstanding(req.Addr, now) {
			c.stats.Inc(stats.StoreOverlappingMisses)
		}
	} else {
		c.stats.Inc(stats.LoadMisses)
		if c.missMSHR.Outstanding(req.Addr, now) {
			c.stats.Inc(stats.LoadOverlappingMisses)
		}
	}
	c.statsMu.Unlock()

	issue := now
	start := c.missMSHR.StartTime(now)
	if start > now {
		now = start
	}

	prefetchKind := 0
	if req.Prefetch {
		prefetchKind = 1
	}
	reply := c.descend(ShmemRequest{
		Requester:    c.CoreID,
		Op:           req.Op,
		Addr:         req.Addr,
		Modeled:      req.Modeled,
		TIssue:       now,
		PrefetchKind: prefetchKind,
	})
	now += reply.Latency

	c.installRefill(req.Addr, reply.Data, reply.State)
	if req.Prefetch {
		if block := c.peekBlock(req.Addr); block != nil {
			block.Flags |= coherence.FlagPrefetch
		}
		c.stats.Inc(stats.Prefetches)
	} else if block := c.peekBlock(req.Addr); block != nil {
		now = c.serviceHit(req, block, now)
	}

	c.missMSHR.Completion(req.Addr, issue, now-issue)

	if c.prefetcher != nil {
		c.prefetcher.Train(req.Addr, isWrite, false)
		if pa, ok := c.prefetcher.Fire(); ok {
			c.issuePrefetch(pa)
		}
	}

	return Result{Where: reply.Where, Latency: now - req.Now, Now: now}
}

// issuePrefetch fires a non-blocking, non-demand MemOp for a so the
// refill is resident by the time a future demand access reaches it. It
// runs on its own goroutine: the caller already holds this set's lock,
// and a prefetch to the same set must not reenter it. Its result is
// discarded; MemOp's own MSHR gating naturally bounds how many of these
// can be outstanding at once.
func (c *Controller) issuePrefetch(a addr.Address) {
	go c.MemOp(Request{
		CoreID:   c.CoreID,
		Op:       Read,
		Addr:     a,
		Buf:      make([]byte, 1),
		Prefetch: true,
	})
}
