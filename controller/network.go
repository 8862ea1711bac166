package controller

// runNetworkThread drains this controller's inbound directory traffic
// for as long as the underlying channel stays open, applying each
// message in arrival order. Only last-level controllers attached to a
// Network run this loop (see Hierarchy.AttachNetwork).
func (c *Controller) runNetworkThread() {
	inbound := c.network.Inbound(c.homeID())
	for msg := range inbound {
		c.HandleDirectoryMsg(msg)
	}
}
