// Package main provides the entry point for cachesim, a cycle-counted
// multi-level MSI cache-coherence simulator driven by a synthetic
// per-core access stream.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sarchlab/cachecoherence/addr"
	"github.com/sarchlab/cachecoherence/config"
	"github.com/sarchlab/cachecoherence/controller"
	"github.com/sarchlab/cachecoherence/external/stub"
	"github.com/sarchlab/cachecoherence/mshr"
	"github.com/sarchlab/cachecoherence/pic"
)

var (
	configPath = flag.String("config", "", "Path to cache hierarchy configuration JSON file")
	cores      = flag.Int("cores", 2, "Number of simulated cores")
	accesses   = flag.Int("accesses", 4096, "Number of accesses per core in the synthetic workload")
	stride     = flag.Int("stride", 64, "Byte stride between consecutive accesses")
	period     = flag.Int("period", 8, "Issue one write every <period> accesses (0 disables writes)")
	picDemo    = flag.Bool("pic", false, "Also run a small PIC copy demo between core 0 and core 1's regions")
	verbose    = flag.Bool("v", false, "Print the configured cache hierarchy before running")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid cache config: %v\n", err)
		os.Exit(1)
	}

	homeLookup := addr.HomeLookup(func(a addr.Address) int { return 0 })
	h := controller.Build(cfg, *cores, homeLookup)

	lastLevel := cfg.Levels[len(cfg.Levels)-1]
	dram := stub.NewDRAM(mshr.Time(lastLevel.DataAccessTime) * 10)
	h.AttachDRAM(dram)

	if *verbose {
		fmt.Printf("cachesim: %d levels, %d cores\n", h.NumLevels(), *cores)
		for i, lvl := range cfg.Levels {
			fmt.Printf("  L%d %-4s size=%d assoc=%d block=%d outstanding=%d\n",
				i, lvl.Name, lvl.Size, lvl.Associativity, lvl.BlockSize, lvl.OutstandingMisses)
		}
	}

	workloads := make([]*stub.Core, *cores)
	for c := 0; c < *cores; c++ {
		base := addr.Address(c * 1 << 20)
		workloads[c] = stub.Striding(base, addr.Address(*stride), *accesses, *period)
	}

	done := make(chan coreReport, *cores)
	for c := 0; c < *cores; c++ {
		go runCore(h, c, workloads[c], done)
	}

	reports := make([]coreReport, *cores)
	for i := 0; i < *cores; i++ {
		r := <-done
		reports[r.coreID] = r
	}

	if *picDemo && *cores >= 2 {
		runPicDemo(h)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].coreID < reports[j].coreID })
	for _, r := range reports {
		fmt.Printf("core %d: %d accesses, final clock %d\n", r.coreID, r.accesses, r.clock)
	}
}

type coreReport struct {
	coreID   int
	accesses int
	clock    mshr.Time
}

func runCore(h *controller.Hierarchy, coreID int, core *stub.Core, done chan<- coreReport) {
	l1 := h.L1(coreID)
	var now mshr.Time
	n := 0

	buf := make([]byte, 8)
	for {
		a, isWrite, ok := core.NextAccess()
		if !ok {
			break
		}
		op := controller.Read
		if isWrite {
			op = controller.Write
		}
		result := l1.MemOp(controller.Request{
			CoreID: coreID,
			Op:     op,
			Addr:   a,
			Buf:    buf,
			Now:    now,
		})
		now = result.Now
		n++
	}

	done <- coreReport{coreID: coreID, accesses: n, clock: now}
}

func runPicDemo(h *controller.Hierarchy) {
	l1 := h.L1(0)
	result := l1.PicOp(controller.PicRequest{
		CoreID: 0,
		Opcode: pic.Copy,
		Addr1:  0,
		Addr2:  addr.Address(1 << 20),
		Count:  1,
		Now:    0,
	})
	fmt.Printf("pic copy demo: where=%s latency=%d\n", result.Where, result.Latency)
}
