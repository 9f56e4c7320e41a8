package prefetch

// pcProxy approximates a program counter from the accessed address,
// since the simulator has no instruction stream to key on. Kept exactly
// as spec.md §4.6 defines it despite its coarseness (it aliases any two
// addresses sharing the upper 16 bits) — preserving this for behavioral
// fidelity is itself a requirement, not an oversight.
func pcProxy(addr uint64) uint64 {
	return addr & 0xFFFF0000
}

type strideEntry struct {
	lastAddr   uint64
	stride     int64
	confidence int
}

// maxConfidence is the highest value confidence can reach. It doubles
// as the act-on threshold: a stride must be fully reconfirmed before a
// prefetch is issued, so a single anomalous access only costs one
// confirmation to recover from rather than resetting the count to zero.
const maxConfidence = 3

// confidenceThreshold is the minimum confidence before a predicted
// stride is trusted enough to issue a prefetch.
const confidenceThreshold = maxConfidence

// StridePredictor tracks one observed stride per PC-proxy bucket and
// predicts the next address once confidence crosses confidenceThreshold.
type StridePredictor struct {
	table map[uint64]*strideEntry
}

// NewStridePredictor returns an empty stride predictor.
func NewStridePredictor() *StridePredictor {
	return &StridePredictor{table: make(map[uint64]*strideEntry)}
}

// Observe records a new access and returns the predicted next address
// and whether confidence is high enough to act on it.
func (p *StridePredictor) Observe(addr uint64) (predicted uint64, confident bool) {
	key := pcProxy(addr)
	e, ok := p.table[key]
	if !ok {
		p.table[key] = &strideEntry{lastAddr: addr}
		return 0, false
	}

	observed := int64(addr) - int64(e.lastAddr)
	if observed == e.stride && observed != 0 {
		if e.confidence < maxConfidence {
			e.confidence++
		}
	} else {
		e.stride = observed
		if e.confidence > 0 {
			e.confidence--
		}
	}
	e.lastAddr = addr

	if e.confidence >= confidenceThreshold {
		return uint64(int64(addr) + e.stride), true
	}
	return 0, false
}

// Reset discards all learned strides.
func (p *StridePredictor) Reset() {
	p.table = make(map[uint64]*strideEntry)
}
