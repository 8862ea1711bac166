package stub

import (
	"sync"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/directory"
	"github.com/sarchlab/cachecoherence/hitwhere"
)

type dirEntry struct {
	sharers map[int]bool
	owner   int // home id of the exclusive/modified holder, or -1
}

// Network is an in-process loopback directory satisfying
// external.Network. It tracks just enough MSI bookkeeping per address
// (a sharer set and a single exclusive owner) to answer Sh/Ex/Upgrade
// requests and issue Inv/Flush/Wb requests against registered
// controllers, enough to drive multi-core coherence scenarios in tests
// without a real distributed directory.
type Network struct {
	mu        sync.Mutex // guards dir and data
	dir       map[addr.Address]*dirEntry
	data      map[addr.Address][]byte
	blockSize int

	inboxMu sync.Mutex
	inboxes map[int]chan directory.Message

	pendingMu sync.Mutex
	pending   map[addr.Address]chan directory.Message
}

// NewNetwork creates a loopback directory for lines of blockSize bytes.
func NewNetwork(blockSize int) *Network {
	return &Network{
		dir:       make(map[addr.Address]*dirEntry),
		data:      make(map[addr.Address][]byte),
		blockSize: blockSize,
		inboxes:   make(map[int]chan directory.Message),
		pending:   make(map[addr.Address]chan directory.Message),
	}
}

// Inbound returns receiverHomeID's inbound channel, creating it on
// first use. The network goroutine Hierarchy.AttachNetwork starts ranges over
// this channel for the controller's whole lifetime.
func (n *Network) Inbound(receiverHomeID int) <-chan directory.Message {
	return n.inbox(receiverHomeID)
}

func (n *Network) inbox(homeID int) chan directory.Message {
	n.inboxMu.Lock()
	defer n.inboxMu.Unlock()
	ch, ok := n.inboxes[homeID]
	if !ok {
		ch = make(chan directory.Message, 64)
		n.inboxes[homeID] = ch
	}
	return ch
}

func (n *Network) deliver(homeID int, msg directory.Message) {
	n.inbox(homeID) <- msg
}

func (n *Network) entry(a addr.Address) *dirEntry {
	e, ok := n.dir[a]
	if !ok {
		e = &dirEntry{sharers: make(map[int]bool), owner: -1}
		n.dir[a] = e
	}
	return e
}

// Send delivers msg. A reply tag either completes a pending
// directory-issued Inv/Flush/Wb round trip (the common case for this
// stub, which only ever issues those three as a side effect of
// servicing a request below) or, if none is pending, is handed
// straight to its receiver. A request tag runs the directory logic
// synchronously on the caller's goroutine.
func (n *Network) Send(msg directory.Message) {
	if msg.Tag.IsReply() {
		n.pendingMu.Lock()
		ch, ok := n.pending[msg.Address]
		n.pendingMu.Unlock()
		if ok {
			ch <- msg
			return
		}
		n.deliver(msg.ReceiverHomeID, msg)
		return
	}

	switch msg.Tag {
	case directory.ShReq:
		n.handleShReq(msg)
	case directory.ExReq:
		n.handleExReq(msg)
	case directory.UpgradeReq:
		n.handleUpgradeReq(msg)
	case directory.VPicCopyReq, directory.VPicCmpReq, directory.VPicSearchReq:
		n.handleVPicReq(msg)
	}
}

// awaitReply sends req to its receiver and blocks for the matching
// *_Rep, correlated by address. Callers hold n.mu for the whole
// directory transaction, so at most one such round trip is ever
// outstanding per address.
func (n *Network) awaitReply(req directory.Message) directory.Message {
	ch := make(chan directory.Message, 1)
	n.pendingMu.Lock()
	n.pending[req.Address] = ch
	n.pendingMu.Unlock()

	n.deliver(req.ReceiverHomeID, req)
	reply := <-ch

	n.pendingMu.Lock()
	delete(n.pending, req.Address)
	n.pendingMu.Unlock()
	return reply
}

func (n *Network) handleShReq(msg directory.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e := n.entry(msg.Address)
	if e.owner >= 0 && e.owner != msg.SenderID {
		reply := n.awaitReply(directory.Message{
			Tag: directory.FlushReq, SenderID: -1,
			ReceiverHomeID: e.owner, Address: msg.Address,
		})
		if len(reply.DataBlock) > 0 {
			n.data[msg.Address] = reply.DataBlock
		}
		e.sharers[e.owner] = true
		e.owner = -1
	}
	e.sharers[msg.SenderID] = true

	n.deliver(msg.SenderID, directory.Message{
		Tag: directory.ShRep, SenderID: -1, ReceiverHomeID: msg.SenderID,
		Address: msg.Address, DataBlock: n.lineFor(msg.Address), HitWhere: hitwhere.LLC,
	})
}

func (n *Network) handleExReq(msg directory.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e := n.entry(msg.Address)
	n.invalidateOthers(e, msg.Address, msg.SenderID)
	e.owner = msg.SenderID

	n.deliver(msg.SenderID, directory.Message{
		Tag: directory.ExRep, SenderID: -1, ReceiverHomeID: msg.SenderID,
		Address: msg.Address, DataBlock: n.lineFor(msg.Address), HitWhere: hitwhere.LLC,
	})
}

func (n *Network) handleUpgradeReq(msg directory.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e := n.entry(msg.Address)
	n.invalidateOthers(e, msg.Address, msg.SenderID)
	e.owner = msg.SenderID

	n.deliver(msg.SenderID, directory.Message{
		Tag: directory.UpgradeRep, SenderID: -1, ReceiverHomeID: msg.SenderID,
		Address: msg.Address, HitWhere: hitwhere.LLC,
	})
}

// invalidateOthers drops every sharer and the exclusive owner, if any,
// other than keep from addr's directory entry: a clean sharer gets an
// Inv, a dirty owner gets a Flush so its data is pulled back before it
// is discarded.
func (n *Network) invalidateOthers(e *dirEntry, a addr.Address, keep int) {
	for id := range e.sharers {
		if id == keep {
			continue
		}
		n.awaitReply(directory.Message{Tag: directory.InvReq, SenderID: -1, ReceiverHomeID: id, Address: a})
		delete(e.sharers, id)
	}
	if e.owner >= 0 && e.owner != keep {
		reply := n.awaitReply(directory.Message{Tag: directory.FlushReq, SenderID: -1, ReceiverHomeID: e.owner, Address: a})
		if len(reply.DataBlock) > 0 {
			n.data[a] = reply.DataBlock
		}
		e.owner = -1
	}
}

func (n *Network) lineFor(a addr.Address) []byte {
	line, ok := n.data[a]
	if !ok {
		line = make([]byte, n.blockSize)
		n.data[a] = line
	}
	out := make([]byte, len(line))
	copy(out, line)
	return out
}

// handleVPicReq answers a PIC directory request with a fixed LLC hit
// location. This stub models only the timing/bookkeeping path the PIC
// pipeline exercises, not the functional result of the bulk operator.
func (n *Network) handleVPicReq(msg directory.Message) {
	var rep directory.Tag
	switch msg.Tag {
	case directory.VPicCopyReq:
		rep = directory.VPicCopyRep
	case directory.VPicCmpReq:
		rep = directory.VPicCmpRep
	default:
		rep = directory.VPicSearchRep
	}
	n.deliver(msg.SenderID, directory.Message{
		Tag: rep, SenderID: -1, ReceiverHomeID: msg.SenderID,
		Address: msg.Address, HitWhere: hitwhere.LLC,
	})
}
