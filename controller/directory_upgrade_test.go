package controller_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/config"
	"github.com/sarchlab/cachecoherence/controller"
	"github.com/sarchlab/cachecoherence/external/stub"
	"github.com/sarchlab/cachecoherence/hitwhere"
)

// privateConfig builds a two-level hierarchy with both L1 and the last
// level private per core, so each core's last-level instance gets its
// own directory HomeID and a write against a line also cached by
// another core's last level must round-trip the shared Network rather
// than being resolved by snooping a local sibling.
func privateConfig() *config.Config {
	return &config.Config{
		Levels: []config.LevelConfig{
			{
				Name: "L1", Coherent: true,
				TagsAccessTime: 1, DataAccessTime: 1, WritebackTime: 2,
				OutstandingMisses: 4, SharedCores: 1,
				ReplacementPolicy: "lru",
				Size: 4 * 64, Associativity: 4, BlockSize: 64,
			},
			{
				Name: "LLC", Coherent: true,
				TagsAccessTime: 4, DataAccessTime: 4, WritebackTime: 8,
				OutstandingMisses: 8, SharedCores: 1,
				ReplacementPolicy: "lru",
				Size: 8 * 64, Associativity: 8, BlockSize: 64,
			},
		},
	}
}

var _ = Describe("Last-level directory upgrade", func() {
	It("round-trips the directory to upgrade a line another node holds Shared", func() {
		cfg := privateConfig()
		homeLookup := addr.HomeLookup(func(a addr.Address) int { return 0 })
		h := controller.Build(cfg, 2, homeLookup)
		net := stub.NewNetwork(64)
		h.AttachNetwork(net)

		l1c0 := h.L1(0)
		l1c1 := h.L1(1)

		buf := make([]byte, 8)
		l1c0.MemOp(controller.Request{CoreID: 0, Op: controller.Read, Addr: 0x9000, Buf: buf})
		l1c1.MemOp(controller.Request{CoreID: 1, Op: controller.Read, Addr: 0x9000, Buf: buf})

		// Both nodes now hold 0x9000 Shared. Core 0 writing it must
		// contact the directory to invalidate core 1's copy, rather
		// than silently promoting its own local Shared block.
		upgrade := l1c0.MemOp(controller.Request{
			CoreID: 0, Op: controller.Write, Addr: 0x9000, Buf: []byte{0x11},
		})
		Expect(upgrade.Where).To(Equal(hitwhere.LLC))

		again := l1c0.MemOp(controller.Request{
			CoreID: 0, Op: controller.Write, Addr: 0x9000, Buf: []byte{0x22},
		})
		Expect(again.Where).To(Equal(hitwhere.L1Own))

		// Core 1's copy was invalidated by the directory-mediated
		// upgrade; its next access must miss all the way out again.
		out := make([]byte, 8)
		reread := l1c1.MemOp(controller.Request{CoreID: 1, Op: controller.Read, Addr: 0x9000, Buf: out})
		Expect(reread.Where).ToNot(Equal(hitwhere.L1Own))
	})
})
