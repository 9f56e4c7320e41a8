// Package writepolicy implements the write-hit/write-miss behavior
// matrix of spec.md §4.2: write-back vs write-through crossed with
// write-allocate vs no-write-allocate. Like internal/replacement, it
// models the capability as small value types rather than an interface
// hierarchy, since the four combinations are a closed, fully-enumerable
// set (spec.md §9 "Polymorphism over policies").
package writepolicy

import "github.com/cachesim/cachesim/internal/simerrors"

// Update is the update-on-hit half of a write policy.
type Update string

const (
	WriteBack    Update = "WriteBack"
	WriteThrough Update = "WriteThrough"
)

// Allocation is the allocate-on-miss half of a write policy.
type Allocation string

const (
	WriteAllocate   Allocation = "WriteAllocate"
	NoWriteAllocate Allocation = "NoWriteAllocate"
)

// Policy is one of the four combinations spec.md §4.2 tabulates.
type Policy struct {
	Update     Update
	Allocation Allocation
}

// New validates and constructs a Policy from configuration strings. An
// empty allocation defaults to WriteAllocate, matching the "optional
// allocation" key in spec.md §6.
func New(update, allocation string) (Policy, error) {
	var u Update
	switch Update(update) {
	case WriteBack, WriteThrough:
		u = Update(update)
	default:
		return Policy{}, simerrors.NewConfigurationError("write_policy", "unknown write policy: "+update)
	}
	a := WriteAllocate
	if allocation != "" {
		switch Allocation(allocation) {
		case WriteAllocate, NoWriteAllocate:
			a = Allocation(allocation)
		default:
			return Policy{}, simerrors.NewConfigurationError("allocation", "unknown allocation policy: "+allocation)
		}
	}
	return Policy{Update: u, Allocation: a}, nil
}

// HitDecision is what a cache level must do when a write hits.
type HitDecision struct {
	// MarkDirtyAndModified marks the block dirty and transitions it to
	// Modified, keeping the update entirely in this cache.
	MarkDirtyAndModified bool
	// ForwardToNext means the write must also be issued to the next
	// level (address-only; no payload is modeled).
	ForwardToNext bool
}

// OnWriteHit returns what to do for a write that hits in this level.
func (p Policy) OnWriteHit() HitDecision {
	if p.Update == WriteBack {
		return HitDecision{MarkDirtyAndModified: true}
	}
	return HitDecision{ForwardToNext: true}
}

// MissDecision is what a cache level must do when a write misses.
type MissDecision struct {
	// Install means the level must fetch the block from the next level
	// and allocate a way for it.
	Install bool
	// MarkDirtyAndModified, only meaningful when Install is true, means
	// the freshly-installed block starts dirty and Modified rather than
	// clean.
	MarkDirtyAndModified bool
	// ForwardToNext means the write must be issued to the next level
	// regardless of whether a block was installed here.
	ForwardToNext bool
}

// OnWriteMiss returns what to do for a write that misses in this level.
func (p Policy) OnWriteMiss() MissDecision {
	switch {
	case p.Update == WriteBack && p.Allocation == WriteAllocate:
		return MissDecision{Install: true, MarkDirtyAndModified: true}
	case p.Update == WriteBack && p.Allocation == NoWriteAllocate:
		return MissDecision{ForwardToNext: true}
	case p.Update == WriteThrough && p.Allocation == WriteAllocate:
		return MissDecision{Install: true, ForwardToNext: true}
	default: // WriteThrough, NoWriteAllocate
		return MissDecision{ForwardToNext: true}
	}
}
