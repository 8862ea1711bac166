// Package waiter implements the per-address directory-waiter FIFO.
// Exactly the first enqueuer of a given address issues the outbound
// directory message; subsequent enqueuers join the wait list and are
// woken in FIFO order by the network thread when that one reply arrives.
package waiter

import (
	"container/list"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/rendezvous"
)

// Waiter describes one pending request awaiting a directory reply.
type Waiter struct {
	Exclusive  bool
	IsPrefetch bool
	CoreID     int
	TIssue     mshr.Time
	// Point is the cross-thread continuation the network goroutine
	// fulfills and the user goroutine acks.
	Point *rendezvous.Point

	// ReplyData and ReplyWhere are filled in by the network goroutine
	// before it calls Point.Fulfill, and read by the user goroutine after
	// Point.Wait returns.
	ReplyData  []byte
	ReplyWhere hitwhere.Where
}

// Queue is the set of per-address FIFOs for one master controller.
type Queue struct {
	perAddr map[addr.Address]*list.List
}

// New creates an empty directory-waiter queue set.
func New() *Queue {
	return &Queue{perAddr: make(map[addr.Address]*list.List)}
}

// Enqueue appends w to a's FIFO, creating it if necessary. It returns
// true if w is the first (and therefore sole) issuer of outbound
// directory traffic for a.
func (q *Queue) Enqueue(a addr.Address, w *Waiter) (isFirst bool) {
	l, ok := q.perAddr[a]
	if !ok {
		l = list.New()
		q.perAddr[a] = l
	}
	isFirst = l.Len() == 0
	l.PushBack(w)
	return isFirst
}

// Front returns the first waiter for a, or nil if the queue is empty.
func (q *Queue) Front(a addr.Address) *Waiter {
	l, ok := q.perAddr[a]
	if !ok || l.Len() == 0 {
		return nil
	}
	return l.Front().Value.(*Waiter)
}

// Dequeue removes and returns the first waiter for a.
func (q *Queue) Dequeue(a addr.Address) *Waiter {
	l, ok := q.perAddr[a]
	if !ok || l.Len() == 0 {
		return nil
	}
	e := l.Front()
	l.Remove(e)
	if l.Len() == 0 {
		delete(q.perAddr, a)
	}
	return e.Value.(*Waiter)
}

// Size returns the number of waiters currently queued for a.
func (q *Queue) Size(a addr.Address) int {
	l, ok := q.perAddr[a]
	if !ok {
		return 0
	}
	return l.Len()
}

// Empty reports whether a has no waiters.
func (q *Queue) Empty(a addr.Address) bool { return q.Size(a) == 0 }

// All returns every waiter currently queued for a, in FIFO order,
// without removing them. Used by the directory-message handler, which
// iterates waiters and dequeues them one at a time as each rendezvous
// completes.
func (q *Queue) All(a addr.Address) []*Waiter {
	l, ok := q.perAddr[a]
	if !ok {
		return nil
	}
	out := make([]*Waiter, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Waiter))
	}
	return out
}
