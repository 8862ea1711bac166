package mshr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/mshr"
)

func TestMshr(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MSHR Suite")
}

var _ = Describe("Model", func() {
	It("disables gating when capacity is zero", func() {
		m := mshr.New[uint64](0, 8)
		m.Completion(0x1000, 0, 100)
		Expect(m.StartTime(0)).To(Equal(mshr.Time(0)))
	})

	It("stalls a new miss until a slot is free", func() {
		m := mshr.New[uint64](1, 8)
		m.Completion(0x1000, 0, 100)
		Expect(m.StartTime(10)).To(Equal(mshr.Time(100)))
		Expect(m.StartTime(200)).To(Equal(mshr.Time(200)))
	})

	It("retains only the most recent N completed entries, FIFO", func() {
		m := mshr.New[uint64](0, 2)
		m.Completion(1, 0, 1)
		m.Completion(2, 0, 2)
		m.Completion(3, 0, 3)
		Expect(m.Occupancy()).To(Equal(2))
		Expect(m.TagCompletion(1)).To(Equal(mshr.Time(^uint64(0))))
		Expect(m.TagCompletion(2)).To(Equal(mshr.Time(2)))
		Expect(m.TagCompletion(3)).To(Equal(mshr.Time(3)))
	})

	It("reports outstanding entries relative to now", func() {
		m := mshr.New[uint64](4, 8)
		m.Completion(7, 0, 50)
		Expect(m.Outstanding(7, 10)).To(BeTrue())
		Expect(m.Outstanding(7, 60)).To(BeFalse())
	})

	It("keeps at most one entry per key", func() {
		m := mshr.New[uint64](4, 8)
		m.Completion(7, 0, 50)
		m.Completion(7, 60, 10)
		Expect(m.Occupancy()).To(Equal(1))
		Expect(m.TagCompletion(7)).To(Equal(mshr.Time(70)))
	})
})
