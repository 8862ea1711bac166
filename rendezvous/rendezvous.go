// Package rendezvous implements the cross-thread continuation between a
// suspended user goroutine (simulated core) and the network goroutine
// (directory handler): the user task awaits a oneshot tied to its
// waiter entry, and the network task, on reply, fulfills the oneshot
// and then awaits an ack from the user task before moving on to the
// next waiter. This gives the network thread a way to advance the
// user thread's clock on wake without raw semaphores.
package rendezvous

import "github.com/sarchlab/cachecoherence/mshr"

// Point is a one-shot handoff tied to a single waiter.Waiter entry. It is
// created when a user goroutine suspends after issuing a last-level-miss
// request, and consumed exactly once by each side.
type Point struct {
	ready chan struct{}
	ack   chan struct{}

	// ReplyClock is the simulated time at which the network thread's
	// reply was applied; the user thread advances its own clock to at
	// least this value on wake, so the network thread's elapsed time
	// never appears to go backwards to the requester.
	ReplyClock mshr.Time
}

// New creates an unfired rendezvous point.
func New() *Point {
	return &Point{
		ready: make(chan struct{}),
		ack:   make(chan struct{}),
	}
}

// Wait blocks the user goroutine until the network goroutine calls
// Fulfill, then returns the clock the network thread observed. The
// caller must call Ack once it has consumed the delivered state, before
// the network goroutine is allowed to proceed to the next waiter.
func (p *Point) Wait() mshr.Time {
	<-p.ready
	return p.ReplyClock
}

// Fulfill is called by the network goroutine once a directory reply has
// been applied to the waiter's block. It records the network thread's
// clock, wakes the user goroutine, then blocks until that goroutine
// calls Ack, which preserves FIFO-waiter ordering: the network thread
// cannot move on to the next waiter until this one has consumed its
// reply.
func (p *Point) Fulfill(clock mshr.Time) {
	p.ReplyClock = clock
	close(p.ready)
	<-p.ack
}

// Ack is called by the user goroutine after it has applied the reply
// (refilled its own cache, etc.), releasing the network goroutine to
// dequeue this waiter and proceed to the next one.
func (p *Point) Ack() {
	close(p.ack)
}
