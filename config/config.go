// Package config loads and validates the cache hierarchy's configuration
// surface using a load/save/validate/clone pattern.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// PrefetcherConfig holds one cache level's prefetcher configuration. The
// prefetcher implementation itself is an external collaborator; this
// module only carries its configuration.
type PrefetcherConfig struct {
	Enabled bool   `json:"enabled"`
	Kind    string `json:"kind"`
	Degree  int    `json:"degree"`
}

// LevelConfig is one cache level's perf_model/<name>/* configuration.
type LevelConfig struct {
	Name string `json:"name"`

	Perfect     bool `json:"perfect"`
	Coherent    bool `json:"coherent"`
	WriteThrough bool `json:"writethrough"`

	WritebackTime  uint64 `json:"writeback_time"`
	DataAccessTime uint64 `json:"data_access_time"`
	TagsAccessTime uint64 `json:"tags_access_time"`

	OutstandingMisses int `json:"outstanding_misses"`
	SharedCores       int `json:"shared_cores"`

	ReplacementPolicy string `json:"replacement_policy"`
	HashFunction      string `json:"hash_function"`

	ATDEnabled bool `json:"atd_enabled"`

	Prefetcher PrefetcherConfig `json:"prefetcher"`

	Size          int `json:"size"`
	Associativity int `json:"associativity"`
	BlockSize     int `json:"block_size"`
}

// GeneralConfig holds the configuration keys that apply across the
// whole cache hierarchy rather than to one level.
type GeneralConfig struct {
	PicOn          bool `json:"pic_on"`
	PicUseVPic     bool `json:"pic_use_vpic"`
	PicAvoidDRAM   bool `json:"pic_avoid_dram"`
	PicCacheLevel  int  `json:"pic_cache_level"`

	// MicrobenchSearchKeyDivisor guards the PIC "search key miss"
	// estimator. It is zero unless a config explicitly opts in, so the
	// formula never fires on a workload it was not written for.
	MicrobenchSearchKeyDivisor int `json:"microbench_search_key_divisor"`
}

// Config is the full configuration surface: one LevelConfig per cache
// level plus the general block.
type Config struct {
	Levels  []LevelConfig `json:"levels"`
	General GeneralConfig `json:"general"`
}

// Default returns a Config with three levels (L1, L2, LLC) and
// conservative latency/size defaults for a private-L1/private-L2/shared-LLC
// hierarchy.
func Default() *Config {
	return &Config{
		Levels: []LevelConfig{
			{
				Name: "L1", Coherent: true,
				TagsAccessTime: 1, DataAccessTime: 1, WritebackTime: 2,
				OutstandingMisses: 8, SharedCores: 1,
				ReplacementPolicy: "lru", HashFunction: "identity",
				Size: 32 * 1024, Associativity: 8, BlockSize: 64,
			},
			{
				Name: "L2", Coherent: true,
				TagsAccessTime: 4, DataAccessTime: 4, WritebackTime: 8,
				OutstandingMisses: 16, SharedCores: 1,
				ReplacementPolicy: "lru", HashFunction: "identity",
				Size: 256 * 1024, Associativity: 8, BlockSize: 64,
			},
			{
				Name: "LLC", Coherent: true,
				TagsAccessTime: 12, DataAccessTime: 12, WritebackTime: 20,
				OutstandingMisses: 32, SharedCores: 0, // 0 == all cores share
				ReplacementPolicy: "lru", HashFunction: "identity",
				Size: 8 * 1024 * 1024, Associativity: 16, BlockSize: 64,
			},
		},
		General: GeneralConfig{PicCacheLevel: 2},
	}
}

// Load reads a Config from a JSON file, starting from Default() so any
// keys the file omits keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}
	return cfg, nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}
	return nil
}

// Validate checks the configuration surface for the obvious invariant
// violations the ConfigInvalid error kind exists to catch.
func (c *Config) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("config must declare at least one cache level")
	}
	for i, lvl := range c.Levels {
		if lvl.BlockSize <= 0 || lvl.BlockSize&(lvl.BlockSize-1) != 0 {
			return fmt.Errorf("level %d (%s): block_size must be a power of two, got %d", i, lvl.Name, lvl.BlockSize)
		}
		if lvl.Associativity <= 0 {
			return fmt.Errorf("level %d (%s): associativity must be > 0", i, lvl.Name)
		}
		if lvl.Size <= 0 || lvl.Size%(lvl.Associativity*lvl.BlockSize) != 0 {
			return fmt.Errorf("level %d (%s): size must be a multiple of associativity*block_size", i, lvl.Name)
		}
		numSets := lvl.Size / (lvl.Associativity * lvl.BlockSize)
		if numSets <= 0 || numSets&(numSets-1) != 0 {
			return fmt.Errorf("level %d (%s): derived set count must be a power of two, got %d", i, lvl.Name, numSets)
		}
		if lvl.OutstandingMisses < 0 {
			return fmt.Errorf("level %d (%s): outstanding_misses must be >= 0", i, lvl.Name)
		}
		last := i == len(c.Levels)-1
		if lvl.WriteThrough && last {
			return fmt.Errorf("level %d (%s): last-level cache cannot be write-through", i, lvl.Name)
		}
	}
	return nil
}

// NumSets derives the per-level set count from Size/Associativity/BlockSize.
func (l LevelConfig) NumSets() int {
	return l.Size / (l.Associativity * l.BlockSize)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := &Config{General: c.General, Levels: make([]LevelConfig, len(c.Levels))}
	copy(out.Levels, c.Levels)
	return out
}
