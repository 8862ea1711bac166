package controller

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/directory"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/pic"
	"github.com/sarchlab/cachecoherence/rendezvous"
	"github.com/sarchlab/cachecoherence/stats"
	"github.com/sarchlab/cachecoherence/waiter"
)

// PicRequest is the argument set to PicOp: a bulk in-cache operator
// over Count consecutive blocks starting at Addr1/Addr2, and Addr3 for
// the ternary ClMult opcode.
type PicRequest struct {
	CoreID   int
	Opcode   pic.Opcode
	Addr1    addr.Address
	Addr2    addr.Address
	Addr3    addr.Address
	HasAddr3 bool
	Count    int
	Now      mshr.Time
}

// PicOp executes a bulk operator over req.Count consecutive blocks,
// gating each block's iteration through the PIC MSHR, a table kept
// separate from the ordinary miss MSHR so PIC traffic serializes
// independently of demand misses.
func (c *Controller) PicOp(req PicRequest) Result {
	now := req.Now
	worst := hitwhere.L1Own

	for i := 0; i < req.Count; i++ {
		step := addr.Address(i * c.geometry.BlockSize)
		a1 := req.Addr1 + step
		a2 := req.Addr2 + step
		var a3 addr.Address
		if req.HasAddr3 {
			a3 = req.Addr3 + step
		}

		if gated := c.picMSHR.StartTime(now); gated > now {
			now = gated
		}
		issue := now

		where, dur := c.picSingleOp(req.Opcode, a1, a2, a3, req.HasAddr3, req.CoreID, now)
		now += dur
		c.picMSHR.Completion(a1, issue, now-issue)

		if hitwhere.Rank(where) > hitwhere.Rank(worst) {
			worst = where
		}
	}

	c.statsMu.Lock()
	c.stats.Inc(stats.PicOps(string(req.Opcode)))
	if pic.SameBank(req.Addr1, req.Addr2, c.geometry, pic.AllWaysOneBank) {
		c.stats.Inc(stats.PicOpsInBank(string(req.Opcode), string(pic.AllWaysOneBank)))
	}
	if pic.SameBank(req.Addr1, req.Addr2, c.geometry, pic.MoreSetsOneBank) {
		c.stats.Inc(stats.PicOpsInBank(string(req.Opcode), string(pic.MoreSetsOneBank)))
	}
	if req.Opcode == pic.Search {
		c.stats.Inc(stats.PicKeyWrites)
		if pic.KeyMissEstimate(c.stats.Get(stats.PicKeyWrites), c.general.MicrobenchSearchKeyDivisor) {
			c.stats.Inc(stats.PicKeyMisses)
		}
	}
	c.statsMu.Unlock()

	return Result{Where: worst, Latency: now - req.Now, Now: now}
}

// picSingleOp implements pic_single_op: decide whether this level
// executes the operator locally or must forward it, and dispatch.
func (c *Controller) picSingleOp(op pic.Opcode, a1, a2, a3 addr.Address, hasAddr3 bool, coreID int, now mshr.Time) (hitwhere.Where, mshr.Time) {
	sameHome := c.homeLookup(a1) == c.homeLookup(a2)
	if pic.DoHere(op, c.IsLast, c.Shared, sameHome) {
		return c.picDoHere(op, a1, a2, a3, hasAddr3, coreID, now)
	}
	return c.picForward(op, a1, a2, a3, hasAddr3, coreID, now)
}

// picDoHere performs the operator's sub-accesses against this
// controller's own store: a dummy read of a1 to warm its set, then the
// timed sub-op against a2 (write for Copy, read otherwise) and, for
// ternary ops, a write of a3. Both timed sub-ops start back at the
// same issue time as the dummy read: the dummy read only establishes
// residency and must not itself inflate the reported latency.
func (c *Controller) picDoHere(op pic.Opcode, a1, a2, a3 addr.Address, hasAddr3 bool, coreID int, now mshr.Time) (hitwhere.Where, mshr.Time) {
	issue := now

	noEvict1 := []addr.Address{a2}
	if hasAddr3 {
		noEvict1 = append(noEvict1, a3)
	}
	where1, _ := c.picMemOp(Read, a1, coreID, issue, noEvict1)

	op2 := Read
	if op == pic.Copy {
		op2 = Write
	}
	where2, dur2 := c.picMemOp(op2, a2, coreID, issue, []addr.Address{a1})

	worst, worstDur := where1, dur2
	if hitwhere.Rank(where2) > hitwhere.Rank(worst) {
		worst = where2
	}

	if hasAddr3 {
		where3, dur3 := c.picMemOp(Write, a3, coreID, issue, []addr.Address{a1, a2})
		if hitwhere.Rank(where3) > hitwhere.Rank(worst) {
			worst = where3
		}
		if dur3 > worstDur {
			worstDur = dur3
		}
	}

	return worst, worstDur
}

// picMemOp is mem_op minus statistics and data transfer: it only
// establishes that a is resident with at least the permission op
// requires. Callers pass the peer PIC addresses as noEvict, which is
// copied into the descent's ShmemRequest; storage.Store's victim
// selection does not consult it, so the refill can still evict a peer
// operand (see DESIGN.md).
func (c *Controller) picMemOp(op Op, a addr.Address, coreID int, start mshr.Time, noEvict []addr.Address) (hitwhere.Where, mshr.Time) {
	set := c.set(a)
	now := start

	c.locks.RLock(set)
	if block := c.peekBlock(a); block != nil && permissible(op, block.State) {
		c.locks.RUnlock(set)
		return c.ownHitWhere(), now - start
	}
	c.locks.RUnlock(set)

	c.locks.Lock(set)
	defer c.locks.Unlock(set)
	if block := c.peekBlock(a); block != nil && permissible(op, block.State) {
		return c.ownHitWhere(), now - start
	}

	if gated := c.picMSHR.StartTime(now); gated > now {
		now = gated
	}
	reply := c.descend(ShmemRequest{
		Requester: coreID,
		Op:        op,
		Addr:      a,
		TIssue:    now,
		NoEvict:   noEvict,
	})
	now += reply.Latency
	c.installRefill(a, reply.Data, reply.State)
	return reply.Where, now - start
}

// picForward implements the not-do_here branch: run the corrective
// writeback/invalidate this level owes before handing the operator to
// whatever lies beyond it (the next level, or the directory at the
// last level).
func (c *Controller) picForward(op pic.Opcode, a1, a2, a3 addr.Address, hasAddr3 bool, coreID int, now mshr.Time) (hitwhere.Where, mshr.Time) {
	c.picCorrectiveAction(op, a1, a2)

	if c.next != nil {
		return c.next.picSingleOp(op, a1, a2, a3, hasAddr3, coreID, now)
	}
	return c.picViaDirectory(op, a1, a2, a3, hasAddr3, coreID, now)
}

// picCorrectiveAction writes back a1 if this level holds it dirty
// (the downstream level is about to read or overwrite it) and either
// invalidates a2 (Copy: the downstream write will replace it) or
// writes it back too (Compare/Search/Logical/ClMult: the downstream
// read must see current data).
func (c *Controller) picCorrectiveAction(op pic.Opcode, a1, a2 addr.Address) {
	c.writebackIfDirty(a1)
	if op == pic.Copy {
		c.invalidateLocal(a2)
		return
	}
	c.writebackIfDirty(a2)
}

func (c *Controller) writebackIfDirty(a addr.Address) {
	set := c.set(a)
	c.locks.Lock(set)
	defer c.locks.Unlock(set)

	block := c.peekBlock(a)
	if block == nil || !block.State.Dirty() {
		return
	}
	c.propagateDirty(a, c.store.RawBlock(block))
}

// picViaDirectory forwards a last-level PIC operator to the tag
// directory, using the VPIC_* message family. A cross-slice Search
// (home(a1) != home(a2)) fabricates a synthetic secondary address per
// pic.DummySearchAddr, since the directory routes by the primary
// address's home alone.
func (c *Controller) picViaDirectory(op pic.Opcode, a1, a2, a3 addr.Address, hasAddr3 bool, coreID int, now mshr.Time) (hitwhere.Where, mshr.Time) {
	issue := now
	secondary := a2
	if op == pic.Search {
		if h1, h2 := c.homeLookup(a1), c.homeLookup(a2); h1 != h2 {
			secondary = pic.DummySearchAddr(h1, h2, a2, c.geometry.BlockSize)
		}
	}

	w := &waiter.Waiter{CoreID: coreID, TIssue: now, Point: rendezvous.New()}
	isFirst := c.waiters.Enqueue(a1, w)
	if isFirst {
		c.network.Send(directory.Message{
			Tag:            vpicReqTag(op),
			SenderID:       c.homeID(),
			ReceiverHomeID: c.homeLookup(a1),
			Address:        a1,
			SecondaryAddr:  secondary,
			HasSecondary:   true,
		})
	}

	clock := w.Point.Wait()
	where := w.ReplyWhere
	w.Point.Ack()

	if clock < issue {
		clock = issue
	}
	return where, clock - issue
}

func vpicReqTag(op pic.Opcode) directory.Tag {
	switch op {
	case pic.Copy:
		return directory.VPicCopyReq
	case pic.Compare:
		return directory.VPicCmpReq
	default:
		return directory.VPicSearchReq
	}
}
