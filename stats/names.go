package stats

import "fmt"

// Flat counter names tracked across loads, stores, misses, prefetching,
// warmup, coherence actions, and uncore timing.
const (
	Loads                  = "loads"
	Stores                 = "stores"
	LoadMisses             = "load-misses"
	StoreMisses            = "store-misses"
	LoadOverlappingMisses  = "load-overlapping-misses"
	StoreOverlappingMisses = "store-overlapping-misses"
	LoadsPrefetch          = "loads-prefetch"
	StoresPrefetch         = "stores-prefetch"
	HitsPrefetch           = "hits-prefetch"
	EvictPrefetch          = "evict-prefetch"
	InvalidatePrefetch     = "invalidate-prefetch"
	HitsWarmup             = "hits-warmup"
	EvictWarmup            = "evict-warmup"
	InvalidateWarmup       = "invalidate-warmup"
	TotalLatency           = "total-latency"
	SnoopLatency           = "snoop-latency"
	QBSQueryLatency        = "qbs-query-latency"
	MSHRLatency            = "mshr-latency"
	Prefetches             = "prefetches"
	CoherencyDowngrades    = "coherency-downgrades"
	CoherencyUpgrades      = "coherency-upgrades"
	CoherencyWritebacks    = "coherency-writebacks"
	CoherencyInvalidates   = "coherency-invalidates"
	DirtyEvicts            = "dirty_evicts"
	DirtyBackinval         = "dirty_backinval"
	Writebacks             = "writebacks"
	PicKeyWrites           = "pic_key_writes"
	PicKeyMisses           = "pic_key_misses"
	UncoreTotalTime        = "uncore-totaltime"
	UncoreRequests         = "uncore-requests"
)

// LoadsWhere, StoresWhere, LoadMissesState, StoreMissesState, EvictState,
// BackinvalState, LoadsState, StoresState, PicOps, PicOpsInBank, PicVOps,
// UncoreTimeReason build the parameterized counter-name families, e.g.
// "loads-where-<where>" and "pic_ops_in_bank_<op>_<policy>".

func LoadsWhere(where string) string      { return fmt.Sprintf("loads-where-%s", where) }
func StoresWhere(where string) string     { return fmt.Sprintf("stores-where-%s", where) }
func LoadMissesState(state string) string { return fmt.Sprintf("load-misses-%s", state) }

func StoreMissesState(state string) string { return fmt.Sprintf("store-misses-%s", state) }
func LoadsState(state string) string       { return fmt.Sprintf("loads-%s", state) }
func StoresState(state string) string      { return fmt.Sprintf("stores-%s", state) }
func EvictState(state string) string       { return fmt.Sprintf("evict-%s", state) }
func BackinvalState(state string) string   { return fmt.Sprintf("backinval-%s", state) }

func PicOps(op string) string                     { return fmt.Sprintf("pic_ops_%s", op) }
func PicOpsInBank(op, policy string) string        { return fmt.Sprintf("pic_ops_in_bank_%s_%s", op, policy) }
func PicVOps(op string) string                     { return fmt.Sprintf("pic_vops_%s", op) }
func UncoreTimeReason(reason string) string        { return fmt.Sprintf("uncore-time-%s", reason) }
