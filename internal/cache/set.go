package cache

// Set is a fixed-size group of ways sharing a set index. It owns the
// blocks only — any auxiliary state a replacement policy needs (recency
// lists, install timestamps, tree bits, reference bits) lives in the
// policy instance assigned to this set, not here, so Set stays a pure
// data container regardless of which policy a level picks for it.
type Set struct {
	Ways []Block
}

// NewSet allocates a set with the given associativity, all ways starting
// Invalid.
func NewSet(associativity int) *Set {
	return &Set{Ways: make([]Block, associativity)}
}

// Lookup scans the set for a valid way holding tag, returning its index.
// Invariant: at most one way may match, since install/evict paths never
// allow two ways to carry the same tag at once.
func (s *Set) Lookup(tag uint64) (way int, found bool) {
	for i := range s.Ways {
		if s.Ways[i].Valid && s.Ways[i].Tag == tag {
			return i, true
		}
	}
	return 0, false
}

// ValidMask reports which ways currently hold a valid block, in way-index
// order. Replacement policies use this to prefer an empty way over a
// true eviction (spec.md §4.1).
func (s *Set) ValidMask() []bool {
	mask := make([]bool, len(s.Ways))
	for i := range s.Ways {
		mask[i] = s.Ways[i].Valid
	}
	return mask
}

// HasInvalidWay reports whether any way in the set is currently empty.
func (s *Set) HasInvalidWay() bool {
	for i := range s.Ways {
		if !s.Ways[i].Valid {
			return true
		}
	}
	return false
}
