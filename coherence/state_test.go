package coherence_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/coherence"
)

func TestCoherence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Coherence Suite")
}

var _ = Describe("CState", func() {
	It("classifies readable states", func() {
		readable := []coherence.CState{
			coherence.Shared, coherence.SharedUpgrading,
			coherence.Exclusive, coherence.Modified, coherence.Owned,
		}
		for _, s := range readable {
			Expect(s.Readable()).To(BeTrue(), "state %s should be readable", s)
		}
		Expect(coherence.Invalid.Readable()).To(BeFalse())
	})

	It("classifies writable states", func() {
		Expect(coherence.Exclusive.Writable()).To(BeTrue())
		Expect(coherence.Modified.Writable()).To(BeTrue())
		Expect(coherence.Shared.Writable()).To(BeFalse())
		Expect(coherence.SharedUpgrading.Writable()).To(BeFalse())
		Expect(coherence.Owned.Writable()).To(BeFalse())
	})

	It("classifies dirty states", func() {
		Expect(coherence.Modified.Dirty()).To(BeTrue())
		Expect(coherence.Owned.Dirty()).To(BeTrue())
		Expect(coherence.Exclusive.Dirty()).To(BeFalse())
	})
})

var _ = Describe("BlockFlags", func() {
	It("tests bit membership", func() {
		f := coherence.FlagWarmup | coherence.FlagPrefetch
		Expect(f.Has(coherence.FlagWarmup)).To(BeTrue())
		Expect(f.Has(coherence.FlagPrefetch)).To(BeTrue())
		Expect(coherence.BlockFlags(0).Has(coherence.FlagWarmup)).To(BeFalse())
	})
})

var _ = Describe("Block", func() {
	It("marks touched ranges within the used bitmap", func() {
		b := &coherence.Block{}
		b.MarkTouched(0, 8, 64) // 64/64 = 1 byte per sub-unit
		Expect(b.UsedBitmap & 0xFF).ToNot(BeZero())
	})

	It("resets metadata but leaves tag ownership to storage", func() {
		b := &coherence.Block{State: coherence.Modified, Flags: coherence.FlagPrefetch, OwnerID: 3}
		b.Reset()
		Expect(b.State).To(Equal(coherence.Invalid))
		Expect(b.Flags).To(BeZero())
		Expect(b.OwnerID).To(BeZero())
	})
})
