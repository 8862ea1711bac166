package controller

import (
	"sync"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/coherence"
	"github.com/sarchlab/cachecoherence/config"
	"github.com/sarchlab/cachecoherence/external"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/setlock"
	"github.com/sarchlab/cachecoherence/simlog"
	"github.com/sarchlab/cachecoherence/stats"
	"github.com/sarchlab/cachecoherence/storage"
	"github.com/sarchlab/cachecoherence/waiter"
)

// Controller is one cache level's master (if shared is true, it serves
// every core that reaches it; otherwise it is private to exactly one
// core). There is no separate master/proxy type split: a "proxy" is
// simply a private Controller with its own storage/locks/MSHRs, and a
// "master" is a shared Controller referenced by multiple
// previous-level controllers, which Go's garbage-collected pointers
// support safely without an arena of indices.
type Controller struct {
	Name     string
	Shared   bool
	IsLast   bool
	CoreID   int // meaningful only when !Shared
	HomeID   int // this controller's directory-network address; last level only
	cfg      config.LevelConfig
	general  config.GeneralConfig
	geometry addr.Geometry

	store    *storage.Store
	locks    *setlock.Array
	missMSHR *mshr.Model[addr.Address]
	picMSHR  *mshr.Model[addr.Address]
	waiters  *waiter.Queue

	stats   *stats.Registry
	statsMu sync.Mutex

	prev []*Controller // controllers closer to the core than this one
	next *Controller   // controller farther from the core; nil if IsLast

	homeLookup addr.HomeLookup
	network    external.Network
	dram       external.DRAMController
	prefetcher external.Prefetcher

	log *simlog.Logger
}

func newController(name string, shared bool, coreID int, cfg config.LevelConfig, general config.GeneralConfig, homeLookup addr.HomeLookup) *Controller {
	geometry := addr.Geometry{BlockSize: cfg.BlockSize, NumSets: cfg.NumSets()}
	vf := victimFinderFor(cfg.ReplacementPolicy)

	return &Controller{
		Name:       name,
		Shared:     shared,
		CoreID:     coreID,
		cfg:        cfg,
		general:    general,
		geometry:   geometry,
		store:      storage.New(geometry, cfg.Associativity, vf),
		locks:      setlock.New(geometry.NumSets),
		missMSHR:   mshr.New[addr.Address](cfg.OutstandingMisses, 8),
		picMSHR:    mshr.New[addr.Address](cfg.OutstandingMisses, 8),
		waiters:    waiter.New(),
		stats:      stats.NewRegistry(),
		homeLookup: homeLookup,
		log:        simlog.New("controller." + name),
	}
}

func victimFinderFor(policy string) akitacache.VictimFinder {
	// Only LRU is wired through akita's victim-finder contract today; an
	// unrecognized policy name falls back to LRU rather than fabricating
	// an unvetted replacement-policy implementation.
	return akitacache.NewLRUVictimFinder()
}

// AttachDRAM wires this (last-level) controller directly to a DRAM
// controller, bypassing the directory.
func (c *Controller) AttachDRAM(d external.DRAMController) { c.dram = d }

// AttachNetwork wires this (last-level) controller to the tag-directory
// network.
func (c *Controller) AttachNetwork(n external.Network) { c.network = n }

// SetHomeID assigns this controller's address on the directory network.
func (c *Controller) SetHomeID(id int) { c.HomeID = id }

// AttachPrefetcher installs a prefetcher trained by hit-path traffic.
func (c *Controller) AttachPrefetcher(p external.Prefetcher) { c.prefetcher = p }

// Stats exposes this controller's own statistics registry. Each private
// instance keeps its own; a shared level's single instance keeps one
// registry for every core it serves.
func (c *Controller) Stats() *stats.Registry { return c.stats }

func (c *Controller) set(a addr.Address) int { return c.geometry.SetIndex(a) }

func (c *Controller) peekBlock(a addr.Address) *coherence.Block {
	return c.store.Peek(a)
}
