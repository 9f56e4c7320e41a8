package config

import (
	"github.com/cachesim/cachesim/internal/cache"
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/prefetch"
	"github.com/cachesim/cachesim/internal/replacement"
	"github.com/cachesim/cachesim/internal/victimcache"
	"github.com/cachesim/cachesim/internal/writepolicy"
)

// BuildLevel constructs a *cachelevel.Level from a validated
// LevelConfig, attaching a stream buffer when its prefetch section is
// enabled. It does not attach a victim cache; Config.BuildVictimCache
// builds that separately. seed is used only by the Random replacement
// policy.
func BuildLevel(name string, l LevelConfig, seed int64) (*cachelevel.Level, error) {
	geom, err := cache.NewGeometry(l.Size, l.Associativity, l.BlockSize)
	if err != nil {
		return nil, err
	}
	wp, err := writepolicy.New(l.WritePolicy, l.Allocation)
	if err != nil {
		return nil, err
	}
	level, err := cachelevel.New(name, geom, replacement.Kind(l.ReplacementPolicy), seed, wp)
	if err != nil {
		return nil, err
	}

	if l.Prefetch != nil && l.Prefetch.Enabled {
		level.AttachStreamBuffer(prefetch.NewStreamBuffer(uint64(l.BlockSize), l.Prefetch.Distance))
	}
	return level, nil
}

// BuildVictimCache constructs a victim cache from c's optional
// victim_cache section, returning nil if it is absent or disabled.
func (c *Config) BuildVictimCache() *victimcache.VictimCache {
	if c.VictimCache == nil || !c.VictimCache.Enabled {
		return nil
	}
	return victimcache.New(c.VictimCache.Size)
}

// BuildCombiningBuffer constructs a write-combining buffer from c's
// optional write_combining section, returning nil if it is absent or
// disabled.
func (c *Config) BuildCombiningBuffer() *writepolicy.CombiningBuffer {
	if c.WriteCombining == nil || !c.WriteCombining.Enabled {
		return nil
	}
	return writepolicy.NewCombiningBuffer(c.WriteCombining.Size)
}

// AdaptiveBounds reports whether l's prefetch section requests adaptive
// mode and, if so, the (distance, min, max) to pass to
// hierarchy.WithAdaptivePrefetch. Missing min/max default to
// [1, 4*distance].
func AdaptiveBounds(l LevelConfig) (distance, min, max int, ok bool) {
	if l.Prefetch == nil || !l.Prefetch.Enabled || !l.Prefetch.Adaptive {
		return 0, 0, 0, false
	}
	min = l.Prefetch.MinDistance
	if min <= 0 {
		min = 1
	}
	max = l.Prefetch.MaxDistance
	if max <= 0 {
		max = l.Prefetch.Distance * 4
		if max < min {
			max = min
		}
	}
	return l.Prefetch.Distance, min, max, true
}
