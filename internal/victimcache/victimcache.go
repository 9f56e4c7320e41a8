// Package victimcache implements the small fully-associative victim
// cache of spec.md §4.3: a FIFO-ordered holding area for blocks evicted
// from L1, probed before falling through to the next level, with
// swap-on-hit re-installation back into L1.
package victimcache

import "github.com/cachesim/cachesim/internal/coherence"

// Entry is one resident block in the victim cache.
type Entry struct {
	BlockAddr uint64
	State     coherence.State
	Dirty     bool
}

// VictimCache holds the most recently evicted L1 blocks, oldest first.
type VictimCache struct {
	capacity int
	entries  []Entry
}

// New returns an empty victim cache with room for capacity blocks.
func New(capacity int) *VictimCache {
	return &VictimCache{capacity: capacity}
}

// Len reports how many blocks currently reside in the victim cache.
func (v *VictimCache) Len() int {
	return len(v.entries)
}

// Lookup searches for blockAddr, returning its entry and true on a hit.
func (v *VictimCache) Lookup(blockAddr uint64) (Entry, bool) {
	for _, e := range v.entries {
		if e.BlockAddr == blockAddr {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove deletes blockAddr from the victim cache, e.g. after a swap
// re-installs it into L1. It is a no-op if blockAddr is not resident.
func (v *VictimCache) Remove(blockAddr uint64) {
	for i, e := range v.entries {
		if e.BlockAddr == blockAddr {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return
		}
	}
}

// Insert deposits an evicted block, evicting the oldest resident entry
// if the victim cache is full. It returns the evicted entry and true if
// one had to be displaced.
func (v *VictimCache) Insert(e Entry) (evicted Entry, didEvict bool) {
	if v.capacity == 0 {
		return e, true
	}
	if len(v.entries) >= v.capacity {
		evicted, didEvict = v.entries[0], true
		v.entries = v.entries[1:]
	}
	v.entries = append(v.entries, e)
	return evicted, didEvict
}

// Swap removes blockAddr from the victim cache for re-installation into
// L1, per spec.md §4.3's atomic swap semantics: the caller installs the
// returned entry into L1 and, in the same step, deposits the block L1
// evicted to make room via Insert.
func (v *VictimCache) Swap(blockAddr uint64) (Entry, bool) {
	e, ok := v.Lookup(blockAddr)
	if !ok {
		return Entry{}, false
	}
	v.Remove(blockAddr)
	return e, true
}
