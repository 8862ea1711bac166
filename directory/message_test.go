package directory_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/directory"
)

func TestDirectory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Directory Suite")
}

var _ = Describe("Tag", func() {
	It("classifies reply tags", func() {
		Expect(directory.ShRep.IsReply()).To(BeTrue())
		Expect(directory.UpgradeRep.IsReply()).To(BeTrue())
		Expect(directory.VPicSearchRep.IsReply()).To(BeTrue())
		Expect(directory.ShReq.IsReply()).To(BeFalse())
		Expect(directory.InvReq.IsReply()).To(BeFalse())
	})
})
