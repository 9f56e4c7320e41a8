// Package config loads and validates the nested configuration document
// spec.md §6 describes: an `l1` level, an optional `l2`, and optional
// `victim_cache`, `write_combining`, `multiprocessor`, and
// `parallelization` sections.
package config

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cachesim/cachesim/internal/simerrors"
	"gopkg.in/yaml.v3"
)

// PrefetchConfig configures the optional prefetch subsystem for one
// cache level.
type PrefetchConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	Distance int  `yaml:"distance" json:"distance"`
	Adaptive bool `yaml:"adaptive,omitempty" json:"adaptive,omitempty"`
	MinDistance int `yaml:"min_distance,omitempty" json:"min_distance,omitempty"`
	MaxDistance int `yaml:"max_distance,omitempty" json:"max_distance,omitempty"`
}

// LevelConfig configures one cache level's geometry and policies.
type LevelConfig struct {
	Size              int             `yaml:"size" json:"size"`
	Associativity     int             `yaml:"associativity" json:"associativity"`
	BlockSize         int             `yaml:"block_size" json:"block_size"`
	ReplacementPolicy string          `yaml:"replacement_policy" json:"replacement_policy"`
	WritePolicy       string          `yaml:"write_policy" json:"write_policy"`
	Allocation        string          `yaml:"allocation,omitempty" json:"allocation,omitempty"`
	Prefetch          *PrefetchConfig `yaml:"prefetch,omitempty" json:"prefetch,omitempty"`
}

// VictimCacheConfig configures the optional victim cache attached to L1.
type VictimCacheConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Size    int  `yaml:"size" json:"size"`
}

// WriteCombiningConfig configures the optional write-combining buffer.
type WriteCombiningConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Size    int  `yaml:"size" json:"size"`
}

// MultiprocessorConfig configures the number of simulated cores sharing
// one address space via the coherence bus.
type MultiprocessorConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Cores   int  `yaml:"cores" json:"cores"`
}

// ParallelizationConfig configures the trace dispatcher.
type ParallelizationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Workers int  `yaml:"workers,omitempty" json:"workers,omitempty"`
	Seed    int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Config is the top-level configuration document.
type Config struct {
	L1              LevelConfig            `yaml:"l1" json:"l1"`
	L2              *LevelConfig           `yaml:"l2,omitempty" json:"l2,omitempty"`
	VictimCache     *VictimCacheConfig     `yaml:"victim_cache,omitempty" json:"victim_cache,omitempty"`
	WriteCombining  *WriteCombiningConfig  `yaml:"write_combining,omitempty" json:"write_combining,omitempty"`
	Multiprocessor  *MultiprocessorConfig  `yaml:"multiprocessor,omitempty" json:"multiprocessor,omitempty"`
	Parallelization *ParallelizationConfig `yaml:"parallelization,omitempty" json:"parallelization,omitempty"`
}

var validReplacementPolicies = map[string]bool{"LRU": true, "FIFO": true, "Random": true, "PLRU": true, "NRU": true}
var validWritePolicies = map[string]bool{"WriteBack": true, "WriteThrough": true}
var validAllocations = map[string]bool{"": true, "WriteAllocate": true, "NoWriteAllocate": true}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func validateLevel(field string, l LevelConfig) error {
	if l.Size <= 0 || !isPowerOfTwo(l.Size) {
		return simerrors.NewConfigurationError(field+".size", "must be a positive power of two")
	}
	if l.Associativity <= 0 {
		return simerrors.NewConfigurationError(field+".associativity", "must be a positive integer")
	}
	if l.BlockSize <= 0 || !isPowerOfTwo(l.BlockSize) {
		return simerrors.NewConfigurationError(field+".block_size", "must be a positive power of two")
	}
	if l.Size%(l.Associativity*l.BlockSize) != 0 {
		return simerrors.NewConfigurationError(field+".size", "must be divisible by associativity*block_size")
	}
	if !validReplacementPolicies[l.ReplacementPolicy] {
		return simerrors.NewConfigurationError(field+".replacement_policy", "unknown replacement policy: "+l.ReplacementPolicy)
	}
	if !validWritePolicies[l.WritePolicy] {
		return simerrors.NewConfigurationError(field+".write_policy", "unknown write policy: "+l.WritePolicy)
	}
	if !validAllocations[l.Allocation] {
		return simerrors.NewConfigurationError(field+".allocation", "unknown allocation policy: "+l.Allocation)
	}
	if l.Prefetch != nil && l.Prefetch.Enabled && l.Prefetch.Distance < 0 {
		return simerrors.NewConfigurationError(field+".prefetch.distance", "must not be negative")
	}
	return nil
}

// Validate checks every recognized field for the rules spec.md §6 and
// §7 describe, returning the first violation it finds as a
// *simerrors.ConfigurationError.
func (c *Config) Validate() error {
	if err := validateLevel("l1", c.L1); err != nil {
		return err
	}
	if c.L2 != nil {
		if err := validateLevel("l2", *c.L2); err != nil {
			return err
		}
		if c.L2.BlockSize != c.L1.BlockSize {
			return simerrors.NewConfigurationError("l2.block_size", "must match l1.block_size")
		}
	}
	if c.VictimCache != nil && c.VictimCache.Enabled && c.VictimCache.Size <= 0 {
		return simerrors.NewConfigurationError("victim_cache.size", "must be positive when enabled")
	}
	if c.WriteCombining != nil && c.WriteCombining.Enabled && c.WriteCombining.Size <= 0 {
		return simerrors.NewConfigurationError("write_combining.size", "must be positive when enabled")
	}
	if c.Multiprocessor != nil && c.Multiprocessor.Enabled && c.Multiprocessor.Cores <= 1 {
		return simerrors.NewConfigurationError("multiprocessor.cores", "must be at least 2 when enabled")
	}
	if c.Parallelization != nil && c.Parallelization.Workers < 0 {
		return simerrors.NewConfigurationError("parallelization.workers", "must not be negative")
	}
	return nil
}

// looksLikeJSON sniffs whether data is a JSON document rather than
// YAML, so Load can accept either extension through one decode path —
// yaml.Unmarshal already accepts the JSON subset it needs, but sniffing
// keeps error messages free of YAML's generic "mapping" language when
// the input is plainly JSON.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Load decodes a configuration document (YAML or JSON) and validates
// it, returning a *simerrors.ConfigurationError on the first violation.
func Load(data []byte) (*Config, error) {
	var cfg Config
	var err error
	if looksLikeJSON(data) {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, simerrors.NewConfigurationError("(document)", "malformed configuration: "+err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToYAML serializes the configuration back to YAML, satisfying the
// load/serialize/reload round-trip property of spec.md §8.
func (c *Config) ToYAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	defer enc.Close()
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}
