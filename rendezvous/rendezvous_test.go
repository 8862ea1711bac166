package rendezvous_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/rendezvous"
)

func TestRendezvous(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rendezvous Suite")
}

var _ = Describe("Point", func() {
	It("hands control from network to user and back", func() {
		p := rendezvous.New()
		userSawClock := make(chan mshr.Time, 1)
		networkReturned := make(chan struct{})

		go func() {
			clock := p.Wait()
			userSawClock <- clock
			p.Ack()
		}()

		go func() {
			p.Fulfill(42)
			close(networkReturned)
		}()

		Eventually(userSawClock).Should(Receive(Equal(mshr.Time(42))))
		Eventually(networkReturned).Should(BeClosed())
	})

	It("blocks the network goroutine until Ack is called", func() {
		p := rendezvous.New()
		fulfilled := make(chan struct{})
		acked := make(chan struct{})

		go func() {
			p.Fulfill(1)
			close(fulfilled)
		}()

		// The user goroutine has not called Wait/Ack yet, so Fulfill
		// must still be blocked waiting for the ack.
		Consistently(fulfilled, 20*time.Millisecond).ShouldNot(BeClosed())

		go func() {
			p.Wait()
			close(acked)
			p.Ack()
		}()

		Eventually(acked).Should(BeClosed())
		Eventually(fulfilled).Should(BeClosed())
	})
})
