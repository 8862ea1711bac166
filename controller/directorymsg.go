package controller

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
	"github.com/sarchlab/cachecoherence/directory"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/rendezvous"
	"github.com/sarchlab/cachecoherence/stats"
	"github.com/sarchlab/cachecoherence/waiter"
)

// directoryRoundTripLatency approximates the wire/queueing delay of one
// directory request-reply exchange. The Network collaborator is opaque,
// so this controller has no way to measure the real delay the
// implementation behind it incurs; this constant stands in for it the
// same way a fixed per-level access-time constant stands in for bus
// contention elsewhere in this model.
const directoryRoundTripLatency mshr.Time = 40

// viaDirectory services a last-level miss by round-tripping through the
// external tag-directory network. Only the first requester for a given
// address sends the outbound message; later callers join the same
// address's waiter FIFO and are all woken, in order, when the reply to
// that one message arrives.
func (c *Controller) viaDirectory(req ShmemRequest) ShmemReply {
	w := &waiter.Waiter{
		Exclusive:  exclusiveOp(req.Op),
		IsPrefetch: req.PrefetchKind != 0,
		CoreID:     req.Requester,
		TIssue:     req.TIssue,
		Point:      rendezvous.New(),
	}

	isFirst := c.waiters.Enqueue(req.Addr, w)
	if isFirst {
		tag := directory.ShReq
		if w.Exclusive {
			tag = directory.ExReq
		}
		c.network.Send(directory.Message{
			Tag:            tag,
			SenderID:       c.homeID(),
			ReceiverHomeID: c.homeLookup(req.Addr),
			Address:        req.Addr,
		})
	}

	clock := w.Point.Wait()
	state := coherence.Shared
	if w.Exclusive {
		state = coherence.Modified
	}
	data := w.ReplyData
	where := w.ReplyWhere
	w.Point.Ack()

	latency := clock
	if latency < req.TIssue {
		latency = req.TIssue
	}
	latency -= req.TIssue

	return ShmemReply{Where: where, Latency: latency, State: state, Data: data}
}

// upgradeViaDirectory escalates a Shared (or already-upgrading) last-
// level line to Modified by round-tripping the tag directory: another
// node may hold the line Shared too, and only the directory can fan
// that invalidation out. The caller has already set the block's state
// to SharedUpgrading and released the set lock before calling this, so
// an inbound InvReq racing the reply can flip it to Invalid while this
// waits.
func (c *Controller) upgradeViaDirectory(req ShmemRequest) ShmemReply {
	w := &waiter.Waiter{
		Exclusive: true,
		CoreID:    req.Requester,
		TIssue:    req.TIssue,
		Point:     rendezvous.New(),
	}

	isFirst := c.waiters.Enqueue(req.Addr, w)
	if isFirst {
		c.network.Send(directory.Message{
			Tag:            directory.UpgradeReq,
			SenderID:       c.homeID(),
			ReceiverHomeID: c.homeLookup(req.Addr),
			Address:        req.Addr,
		})
	}

	clock := w.Point.Wait()
	data := w.ReplyData
	where := w.ReplyWhere
	w.Point.Ack()

	set := c.set(req.Addr)
	c.locks.Lock(set)
	block := c.peekBlock(req.Addr)
	var out []byte
	switch {
	case block == nil || block.State == coherence.Invalid:
		// An invalidation raced the upgrade reply; the upgrade contract
		// requires the reply to carry fresh data in that case.
		c.installRefill(req.Addr, data, coherence.Modified)
		out = data
	default:
		c.invalidateSiblings(req.Addr, req.Requester, block)
		block.State = coherence.Modified
		raw := c.store.RawBlock(block)
		out = make([]byte, len(raw))
		copy(out, raw)
	}
	c.locks.Unlock(set)
	c.stats.Inc(stats.CoherencyUpgrades)

	latency := clock
	if latency < req.TIssue {
		latency = req.TIssue
	}
	latency -= req.TIssue

	return ShmemReply{Where: where, Latency: latency, State: coherence.Modified, Data: out}
}

// reissueAsUpgrade is the network thread's response to finding, while
// waking waiters from one Sh reply, a waiter that actually wants
// exclusive access: rather than handing it Shared data it cannot use,
// it re-enters the request path as a fresh upgrade and only then wakes
// the original waiter with that outcome.
func (c *Controller) reissueAsUpgrade(a addr.Address, w *waiter.Waiter) {
	reply := c.upgradeViaDirectory(ShmemRequest{
		Requester: w.CoreID,
		Op:        Write,
		Addr:      a,
		TIssue:    w.TIssue,
	})
	w.ReplyData = reply.Data
	w.ReplyWhere = reply.Where
	w.Point.Fulfill(w.TIssue + reply.Latency)
}

// HandleDirectoryMsg is the network thread's single entry point for
// every inbound directory message: replies complete a waiting request,
// and INV_REQ/FLUSH_REQ/WB_REQ carry out the directory's demand against
// this controller's own store.
func (c *Controller) HandleDirectoryMsg(msg directory.Message) {
	if msg.Tag.IsReply() {
		c.handleDirectoryReply(msg)
		return
	}

	switch msg.Tag {
	case directory.InvReq:
		c.invalidateLocal(msg.Address)
		c.network.Send(c.reply(directory.InvRep, msg))
	case directory.FlushReq:
		reply := c.reply(directory.FlushRep, msg)
		reply.DataBlock = c.flush(msg.Address)
		c.network.Send(reply)
	case directory.WbReq:
		reply := c.reply(directory.WbRep, msg)
		reply.DataBlock = c.flush(msg.Address)
		c.network.Send(reply)
	}
}

func (c *Controller) reply(tag directory.Tag, req directory.Message) directory.Message {
	return directory.Message{
		Tag:            tag,
		SenderID:       c.homeID(),
		ReceiverHomeID: req.SenderID,
		Address:        req.Address,
	}
}

// handleDirectoryReply applies one directory reply to every waiter
// currently queued for its address, in FIFO order: the directory only
// ever answers the first enqueuer's outbound message, so every later
// enqueuer piggybacking on the same address shares this one reply. Each
// waiter is woken and blocks this thread on its own Ack before the next
// is processed, preserving FIFO order. A waiter that wants exclusive
// access but is only holding a Shared reply cannot be served by it; it
// is re-entered as its own upgrade instead.
func (c *Controller) handleDirectoryReply(msg directory.Message) {
	waiters := c.waiters.All(msg.Address)
	if len(waiters) == 0 {
		c.log.Warn("network", c.CoreID, "reply for address %v with no waiter", msg.Address)
		return
	}

	for _, w := range waiters {
		c.waiters.Dequeue(msg.Address)

		if w.Exclusive && msg.Tag == directory.ShRep {
			go c.reissueAsUpgrade(msg.Address, w)
			continue
		}

		w.ReplyData = msg.DataBlock
		w.ReplyWhere = msg.HitWhere

		c.statsMu.Lock()
		c.stats.Inc(stats.UncoreRequests)
		c.statsMu.Unlock()

		w.Point.Fulfill(w.TIssue + directoryRoundTripLatency)
	}
}

// flush writes back and invalidates addr in this controller's own
// store, returning its data (nil if the line was not present).
func (c *Controller) flush(a addr.Address) []byte {
	set := c.set(a)
	c.locks.Lock(set)
	defer c.locks.Unlock(set)

	block := c.peekBlock(a)
	if block == nil {
		return nil
	}
	raw := c.store.RawBlock(block)
	out := make([]byte, len(raw))
	copy(out, raw)

	if block.State.Dirty() {
		c.stats.Inc(stats.CoherencyWritebacks)
	}
	c.store.Invalidate(a)
	c.stats.Inc(stats.CoherencyInvalidates)
	return out
}
