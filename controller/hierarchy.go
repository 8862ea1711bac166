package controller

import (
	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/config"
	"github.com/sarchlab/cachecoherence/external"
)

// Hierarchy builds and owns the per-level controller instances for a
// multi-core cache stack: each core's accesses flow from its L1
// controller to, on a miss, the next level out, and so on until the
// last level, which terminates at DRAM or the directory network.
type Hierarchy struct {
	cfg      *config.Config
	numCores int
	levels   [][]*Controller // levels[i] has len 1 if shared, len numCores if private
}

// Build constructs a Hierarchy from cfg for numCores simulated cores. A
// level is private (one Controller per core) when its SharedCores
// config key is 1 (the default for L1/L2 in config.Default); any other
// value makes it shared, with every lower-level controller from every
// core wired into its prev list.
func Build(cfg *config.Config, numCores int, homeLookup addr.HomeLookup) *Hierarchy {
	h := &Hierarchy{cfg: cfg, numCores: numCores}
	h.levels = make([][]*Controller, len(cfg.Levels))

	for i, lvl := range cfg.Levels {
		shared := lvl.SharedCores != 1
		count := numCores
		if shared {
			count = 1
		}
		instances := make([]*Controller, count)
		for c := 0; c < count; c++ {
			coreID := c
			if shared {
				coreID = -1
			}
			instances[c] = newController(lvl.Name, shared, coreID, lvl, cfg.General, homeLookup)
		}
		h.levels[i] = instances
	}

	for i := 0; i < len(h.levels)-1; i++ {
		cur, next := h.levels[i], h.levels[i+1]
		for c, ctrl := range cur {
			var nxt *Controller
			if len(next) == 1 {
				nxt = next[0]
			} else {
				nxt = next[c]
			}
			ctrl.next = nxt
			nxt.prev = append(nxt.prev, ctrl)
		}
	}

	last := h.levels[len(h.levels)-1]
	for _, ctrl := range last {
		ctrl.IsLast = true
	}

	return h
}

// AttachDRAM wires every last-level controller instance directly to d.
func (h *Hierarchy) AttachDRAM(d external.DRAMController) {
	for _, ctrl := range h.levels[len(h.levels)-1] {
		ctrl.AttachDRAM(d)
	}
}

// AttachNetwork wires every last-level controller instance to n and
// starts each one's network goroutine.
func (h *Hierarchy) AttachNetwork(n external.Network) {
	for i, ctrl := range h.levels[len(h.levels)-1] {
		ctrl.SetHomeID(i)
		ctrl.AttachNetwork(n)
		go ctrl.runNetworkThread()
	}
}

// Core returns the chain of per-level controllers a given core's "user
// thread" issues mem_op/pic_op against, starting from L1 (index 0).
// Shared levels return the same instance for every core.
func (h *Hierarchy) Core(coreID int) []*Controller {
	out := make([]*Controller, len(h.levels))
	for i, instances := range h.levels {
		if len(instances) == 1 {
			out[i] = instances[0]
		} else {
			out[i] = instances[coreID]
		}
	}
	return out
}

// L1 returns the entry-point controller for coreID, the only level a
// core's user thread calls MemOp against directly.
func (h *Hierarchy) L1(coreID int) *Controller {
	instances := h.levels[0]
	if len(instances) == 1 {
		return instances[0]
	}
	return instances[coreID]
}

// NumLevels returns the number of configured cache levels.
func (h *Hierarchy) NumLevels() int { return len(h.levels) }
