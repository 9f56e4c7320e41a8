package replacement

import "math/rand"

// Random picks uniformly among the currently valid ways when the set is
// full. Its RNG is seeded per instance (never a package-level source) so
// that independent hierarchies — one per worker in the parallel trace
// dispatcher — never share or contend on random state, and so tests can
// reproduce a run exactly given the same seed (spec.md §5, §9).
type Random struct {
	rng  *rand.Rand
	seed int64
}

// NewRandom returns a Random policy seeded deterministically from seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

func (r *Random) Reset()        { r.rng = rand.New(rand.NewSource(r.seed)) }
func (r *Random) OnAccess(int)  {}
func (r *Random) OnInstall(int) {}

func (r *Random) SelectVictim(validMask []bool) (int, error) {
	if len(validMask) == 0 {
		return 0, errNoWays()
	}
	if way := firstInvalid(validMask); way >= 0 {
		return way, nil
	}
	var candidates []int
	for way, valid := range validMask {
		if valid {
			candidates = append(candidates, way)
		}
	}
	if len(candidates) == 0 {
		return 0, errNoWays()
	}
	return candidates[r.rng.Intn(len(candidates))], nil
}
