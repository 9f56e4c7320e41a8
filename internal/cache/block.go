// Package cache holds the passive data model shared by every level of the
// hierarchy: the cache block and the cache set that groups them. Nothing
// in this package knows about replacement policy, write policy, or
// coherence traffic — it is deliberately inert, the same way
// internal/storage's MemoryStore in the teacher repo only ever stores and
// copies bytes and leaves policy decisions to its callers.
package cache

import "github.com/cachesim/cachesim/internal/coherence"

// Block is a single cache line's worth of metadata. It never carries a
// data payload (spec.md's Non-goals exclude data content); only the
// bookkeeping a real cache line would need to answer "is this valid,
// dirty, and who else might have a copy."
//
// Invariant: Valid == (State != coherence.Invalid).
// Invariant: a block in coherence.Modified state is always Dirty; a block
// in coherence.Shared or coherence.Exclusive is never Dirty.
type Block struct {
	Tag         uint64
	State       coherence.State
	AccessCount uint32
	LastAccess  uint64
	InstallTime uint64
	Valid       bool
	Dirty       bool
	Prefetched  bool
}

// Invalidate resets a block to the Invalid state, clearing dirty and
// prefetched flags. It does not clear Tag or the access counters: those
// are overwritten on the next install, and keeping them around causes no
// harm since Valid gates every read.
func (b *Block) Invalidate() {
	b.Valid = false
	b.Dirty = false
	b.Prefetched = false
	b.State = coherence.Invalid
}

// Install populates a block for a freshly-fetched tag, matching the
// "created at construction... mutate in place" lifecycle spec.md §3
// describes: blocks are never allocated per-access, only overwritten.
func (b *Block) Install(tag uint64, state coherence.State, now uint64, prefetched bool) {
	b.Tag = tag
	b.Valid = true
	b.Dirty = state == coherence.Modified
	b.State = state
	b.AccessCount = 0
	b.InstallTime = now
	b.LastAccess = now
	b.Prefetched = prefetched
}

// Touch records that the block was accessed at timestamp now, bumping
// the access counter. It never changes Tag, Valid, Dirty, or State.
func (b *Block) Touch(now uint64) {
	b.AccessCount++
	b.LastAccess = now
}
