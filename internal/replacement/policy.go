// Package replacement implements the pluggable per-set victim-selection
// policies of spec.md §4.1: LRU, FIFO, Random, Tree-PLRU, and NRU. Each
// variant is a small concrete type behind one interface — the same
// "interface plus concrete structs, no inheritance" shape the teacher
// repo uses for internal/storage.Store, and the shape
// ramiab12-perceptron-cache-replacement's VictimFinder interface uses for
// pluggable eviction strategies.
package replacement

import "github.com/cachesim/cachesim/internal/simerrors"

// Policy tracks whatever per-set state a replacement strategy needs and
// chooses a victim way when the set is full. OnAccess and OnInstall are
// no-ops for policies that don't care (Random, FIFO's OnAccess), but are
// always safe to call.
type Policy interface {
	// OnAccess notifies the policy that way was just hit.
	OnAccess(way int)
	// OnInstall notifies the policy that way was just filled with a new
	// block (a compulsory insertion or the target of an eviction).
	OnInstall(way int)
	// SelectVictim picks a way to evict given which ways currently hold
	// a valid block. It must prefer an invalid way (lowest index) when
	// one exists; otherwise it applies its own eviction order. Ties are
	// broken by lowest way index.
	SelectVictim(validMask []bool) (int, error)
	// Reset clears all per-set state, as if newly constructed.
	Reset()
}

// firstInvalid returns the lowest-indexed invalid way, or -1 if the set
// is full. Every policy's SelectVictim starts here per spec.md §4.1.
func firstInvalid(validMask []bool) int {
	for i, valid := range validMask {
		if !valid {
			return i
		}
	}
	return -1
}

func errNoWays() error {
	return simerrors.NewSimulationError("select-victim-nonempty-set", "SelectVictim called with an empty validMask")
}
