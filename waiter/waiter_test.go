package waiter_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/waiter"
)

func TestWaiter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Waiter Suite")
}

var _ = Describe("Queue", func() {
	var q *waiter.Queue

	BeforeEach(func() {
		q = waiter.New()
	})

	It("reports the first enqueuer as the sole issuer", func() {
		first := q.Enqueue(0x1000, &waiter.Waiter{CoreID: 0})
		second := q.Enqueue(0x1000, &waiter.Waiter{CoreID: 1})
		Expect(first).To(BeTrue())
		Expect(second).To(BeFalse())
	})

	It("dequeues waiters in FIFO order", func() {
		w0 := &waiter.Waiter{CoreID: 0}
		w1 := &waiter.Waiter{CoreID: 1}
		q.Enqueue(0x2000, w0)
		q.Enqueue(0x2000, w1)

		Expect(q.Front(0x2000)).To(BeIdenticalTo(w0))
		Expect(q.Dequeue(0x2000)).To(BeIdenticalTo(w0))
		Expect(q.Dequeue(0x2000)).To(BeIdenticalTo(w1))
		Expect(q.Empty(0x2000)).To(BeTrue())
	})

	It("keeps distinct addresses independent", func() {
		q.Enqueue(0x1000, &waiter.Waiter{})
		Expect(q.Empty(0x2000)).To(BeTrue())
		Expect(q.Size(0x1000)).To(Equal(1))
	})

	It("lists all waiters without removing them", func() {
		w0 := &waiter.Waiter{CoreID: 0}
		w1 := &waiter.Waiter{CoreID: 1}
		q.Enqueue(0x3000, w0)
		q.Enqueue(0x3000, w1)
		all := q.All(0x3000)
		Expect(all).To(HaveLen(2))
		Expect(q.Size(0x3000)).To(Equal(2))
	})
})
