package replacement

// NRU keeps one reference bit per way, set on access or install. Victim
// selection looks for a valid way with a cleared bit; if every valid way
// has its bit set, all reference bits are cleared and the scan restarts.
// A periodic clear every 4*associativity accesses bounds staleness even
// without an eviction (spec.md §4.1).
type NRU struct {
	ref           []bool
	associativity int
	accesses      int
}

// NewNRU returns an NRU policy for a set with the given associativity.
func NewNRU(associativity int) *NRU {
	n := &NRU{associativity: associativity}
	n.Reset()
	return n
}

func (n *NRU) Reset() {
	n.ref = make([]bool, n.associativity)
	n.accesses = 0
}

func (n *NRU) mark(way int) {
	n.ref[way] = true
	n.accesses++
	if n.accesses >= 4*n.associativity {
		n.accesses = 0
		for i := range n.ref {
			n.ref[i] = false
		}
		n.ref[way] = true
	}
}

func (n *NRU) OnAccess(way int)  { n.mark(way) }
func (n *NRU) OnInstall(way int) { n.mark(way) }

func (n *NRU) SelectVictim(validMask []bool) (int, error) {
	if len(validMask) == 0 {
		return 0, errNoWays()
	}
	if way := firstInvalid(validMask); way >= 0 {
		return way, nil
	}
	for way, valid := range validMask {
		if valid && !n.ref[way] {
			return way, nil
		}
	}
	// Every valid way has its bit set: clear them all and rescan, so the
	// next eviction always has at least one cleared candidate.
	for i := range n.ref {
		n.ref[i] = false
	}
	for way, valid := range validMask {
		if valid {
			return way, nil
		}
	}
	return 0, errNoWays()
}
