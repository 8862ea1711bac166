package setlock_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/setlock"
)

func TestSetlock(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Setlock Suite")
}

var _ = Describe("Array", func() {
	var a *setlock.Array

	BeforeEach(func() {
		a = setlock.New(4)
	})

	It("allows concurrent shared holders on the same set", func() {
		a.RLock(0)
		done := make(chan struct{})
		go func() {
			a.RLock(0)
			a.RUnlock(0)
			close(done)
		}()
		Eventually(done).Should(BeClosed())
		a.RUnlock(0)
	})

	It("serializes exclusive holders on the same set", func() {
		a.Lock(0)
		acquired := make(chan struct{})
		go func() {
			a.Lock(0)
			close(acquired)
			a.Unlock(0)
		}()
		Consistently(acquired, "20ms").ShouldNot(BeClosed())
		a.Unlock(0)
		Eventually(acquired).Should(BeClosed())
	})

	It("leaves distinct sets unordered", func() {
		a.Lock(0)
		defer a.Unlock(0)

		done := make(chan struct{})
		go func() {
			a.Lock(1)
			a.Unlock(1)
			close(done)
		}()
		Eventually(done).Should(BeClosed())
	})

	It("upgrades from shared to exclusive", func() {
		a.RLock(0)
		a.Upgrade(0)
		a.Unlock(0)
	})

	It("downgrades from exclusive to shared", func() {
		a.Lock(0)
		a.Downgrade(0)
		a.RUnlock(0)
	})
})
