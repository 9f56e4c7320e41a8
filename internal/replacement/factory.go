package replacement

import "github.com/cachesim/cachesim/internal/simerrors"

// Kind names the replacement policy variants recognized in configuration
// (spec.md §6).
type Kind string

const (
	KindLRU    Kind = "LRU"
	KindFIFO   Kind = "FIFO"
	KindRandom Kind = "Random"
	KindPLRU   Kind = "PLRU"
	KindNRU    Kind = "NRU"
)

// New constructs the policy instance for one set, given its kind,
// associativity, and (only used by Random) an RNG seed. A cache level
// calls this once per set so every set gets its own independent policy
// state, per spec.md §3 ("a replacement-policy instance per set").
func New(kind Kind, associativity int, seed int64) (Policy, error) {
	switch kind {
	case KindLRU:
		return NewLRU(associativity), nil
	case KindFIFO:
		return NewFIFO(associativity), nil
	case KindRandom:
		return NewRandom(seed), nil
	case KindPLRU:
		return NewTreePLRU(associativity)
	case KindNRU:
		return NewNRU(associativity), nil
	default:
		return nil, simerrors.NewConfigurationError("replacement_policy", "unknown replacement policy: "+string(kind))
	}
}
