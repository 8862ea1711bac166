package controller_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/controller"
	"github.com/sarchlab/cachecoherence/external/stub"
	"github.com/sarchlab/cachecoherence/hitwhere"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/pic"
)

var _ = Describe("PicOp", func() {
	It("establishes residency for both operands of a same-home copy", func() {
		h := buildWithDRAM(1)
		l1 := h.L1(0)

		result := l1.PicOp(controller.PicRequest{
			CoreID: 0,
			Opcode: pic.Copy,
			Addr1:  0x7000,
			Addr2:  0x8000,
			Count:  1,
		})

		// Both addresses missed cold through to DRAM, so the worst
		// (and only) hit-where attribution across the two sub-ops is Dram.
		Expect(result.Where).To(Equal(hitwhere.Dram))

		// picDoHere's mem_op calls leave both lines resident afterward.
		followUp := l1.MemOp(controller.Request{
			CoreID: 0, Op: controller.Read, Addr: 0x7000, Buf: make([]byte, 4),
		})
		Expect(followUp.Where).To(Equal(hitwhere.L1Own))
	})

	It("runs a batch of Count consecutive block-strided copies", func() {
		h := buildWithDRAM(1)
		l1 := h.L1(0)

		result := l1.PicOp(controller.PicRequest{
			CoreID: 0,
			Opcode: pic.Copy,
			Addr1:  0x9000,
			Addr2:  0xA000,
			Count:  3,
		})
		Expect(result.Latency).To(BeNumerically(">", 0))
	})
})

var _ = Describe("PicOp key-miss estimator", func() {
	It("stays silent until the configured write divisor is reached", func() {
		cfg := smallConfig(1)
		cfg.General.MicrobenchSearchKeyDivisor = 2
		homeLookup := addr.HomeLookup(func(a addr.Address) int { return 0 })
		h := controller.Build(cfg, 1, homeLookup)
		h.AttachDRAM(stub.NewDRAM(mshr.Time(50)))
		l1 := h.L1(0)

		l1.PicOp(controller.PicRequest{CoreID: 0, Opcode: pic.Search, Addr1: 0xB000, Addr2: 0xC000, Count: 1})
		Expect(l1.Stats().Get("pic_key_writes")).To(Equal(uint64(1)))

		l1.PicOp(controller.PicRequest{CoreID: 0, Opcode: pic.Search, Addr1: 0xB000, Addr2: 0xC000, Count: 1})
		Expect(l1.Stats().Get("pic_key_misses")).To(Equal(uint64(1)))
	})
})
