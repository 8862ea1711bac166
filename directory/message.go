// Package directory defines the wire message tags and payload exchanged
// with the external tag-directory network.
package directory

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/hitwhere"
)

// Tag names a directory protocol message type.
type Tag string

const (
	ShReq      Tag = "SH_REQ"
	ExReq      Tag = "EX_REQ"
	UpgradeReq Tag = "UPGRADE_REQ"
	InvReq     Tag = "INV_REQ"
	FlushReq   Tag = "FLUSH_REQ"
	WbReq      Tag = "WB_REQ"

	InvRep     Tag = "INV_REP"
	FlushRep   Tag = "FLUSH_REP"
	WbRep      Tag = "WB_REP"
	ShRep      Tag = "SH_REP"
	ExRep      Tag = "EX_REP"
	UpgradeRep Tag = "UPGRADE_REP"

	VPicCopyReq   Tag = "VPIC_COPY_REQ"
	VPicCopyRep   Tag = "VPIC_COPY_REP"
	VPicCmpReq    Tag = "VPIC_CMP_REQ"
	VPicCmpRep    Tag = "VPIC_CMP_REP"
	VPicSearchReq Tag = "VPIC_SEARCH_REQ"
	VPicSearchRep Tag = "VPIC_SEARCH_REP"
)

// IsReply reports whether t is one of the *_REP-family tags the network
// thread hands to HandleDirectoryMsg's reply path rather than its
// request path.
func (t Tag) IsReply() bool {
	switch t {
	case InvRep, FlushRep, WbRep, ShRep, ExRep, UpgradeRep,
		VPicCopyRep, VPicCmpRep, VPicSearchRep:
		return true
	default:
		return false
	}
}

// Message is the wire payload exchanged with the directory network:
// sender, receiver home, address, an optional data block, an optional
// secondary address, and an opaque performance-model token.
type Message struct {
	Tag             Tag
	SenderID        int
	ReceiverHomeID  int
	Address         addr.Address
	DataBlock       []byte // optional
	SecondaryAddr   addr.Address
	HasSecondary    bool
	PerfToken       uint64
	// HitWhere accompanies replies so the network thread can attribute
	// the reply's original hit location to the requester's statistics.
	HitWhere hitwhere.Where
}
