package addr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/addr"
)

func TestAddr(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Addr Suite")
}

var _ = Describe("Geometry", func() {
	g := addr.Geometry{BlockSize: 64, NumSets: 16}

	It("aligns addresses down to the block boundary", func() {
		Expect(g.Aligned(0x1003)).To(Equal(addr.Address(0x1000)))
		Expect(g.Aligned(0x1000)).To(Equal(addr.Address(0x1000)))
	})

	It("computes the within-block offset", func() {
		Expect(g.Offset(0x1003)).To(Equal(3))
	})

	It("computes the set index from the aligned address", func() {
		// block 0x1000 / 64 = 0x40 blocks in; & 15 = 0
		Expect(g.SetIndex(0x1000)).To(Equal(0))
		Expect(g.SetIndex(0x1040)).To(Equal(1))
	})

	It("delegates home lookup to the supplied function", func() {
		lookup := func(a addr.Address) int { return int(a) % 4 }
		Expect(g.Home(0x1000, lookup)).To(Equal(int(0x1000) % 4))
	})
})
