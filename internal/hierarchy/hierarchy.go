// Package hierarchy composes cache levels into the single public entry
// point spec.md §4.9 describes: one Access(addr, is_write) call that
// threads an access through L1, optionally L2, and main memory, while
// owning the cross-level state no individual level should own itself —
// the global timestamp, the stride predictor, and the adaptive
// prefetcher.
package hierarchy

import (
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/prefetch"
)

// adaptPeriod is how often, in accesses, the adaptive prefetcher
// re-evaluates its strategy and distance (spec.md §4.6, §4.9).
const adaptPeriod = 1000

// Counters holds the aggregate statistics spec.md §4.9 requires query
// methods for.
type Counters struct {
	Accesses uint64
	Reads    uint64
	Writes   uint64
	L1Misses uint64
}

// Hierarchy owns L1 (required), L2 (optional), the stride predictor,
// an optional adaptive prefetcher, and the single access-timestamp
// counter every level's blocks are stamped with. It does not
// synchronize internally (spec.md §4.9, §5): callers needing
// parallelism build one Hierarchy per worker.
type Hierarchy struct {
	L1 *cachelevel.Level
	L2 *cachelevel.Level

	stride   *prefetch.StridePredictor
	adaptive *prefetch.Adaptive

	now      uint64
	counters Counters
}

// Option configures a Hierarchy at construction time.
type Option func(*Hierarchy)

// WithStridePrediction attaches a stride predictor to L1, consulted on
// every miss per spec.md §4.7 step 11.
func WithStridePrediction() Option {
	return func(h *Hierarchy) {
		h.stride = prefetch.NewStridePredictor()
		h.L1.AttachPrefetcher(h.stride)
	}
}

// WithAdaptivePrefetch attaches an adaptive strategy selector on top of
// the stride predictor and stream buffer, periodically re-tuned by
// Adapt (spec.md §4.6).
// WithAdaptivePrefetch attaches an adaptive strategy selector on top of
// the stride predictor and stream buffer, periodically re-tuned by
// Adapt (spec.md §4.6). It puts L1 into adaptive dispatch: from here on,
// only the currently selected strategy's mechanism runs on a miss, and
// the stream buffer's fill depth tracks the adapted distance, rather
// than both mechanisms running unconditionally.
func WithAdaptivePrefetch(initialDistance, minDistance, maxDistance int) Option {
	return func(h *Hierarchy) {
		h.adaptive = prefetch.NewAdaptive(initialDistance, minDistance, maxDistance)
		h.L1.PrefetchOutcome = func(useful bool) {
			strategy, _ := h.adaptive.Current()
			h.adaptive.RecordOutcome(strategy, useful)
		}
		strategy, distance := h.adaptive.Current()
		h.L1.SetPrefetchTuning(strategy, distance)
	}
}

// New builds a Hierarchy from an already-constructed L1 (required) and
// an optional L2. L1's next level is set to L2 if given, else to a
// MainMemory sentinel; L2's next level (if present) is always
// MainMemory, per spec.md §4.9's "L1 first, L2 optional" ordering.
func New(l1 *cachelevel.Level, l2 *cachelevel.Level, opts ...Option) *Hierarchy {
	h := &Hierarchy{L1: l1, L2: l2}

	mainMemory := &cachelevel.MainMemory{}
	if l2 != nil {
		l2.SetNext(mainMemory)
		l1.SetNext(l2)
	} else {
		l1.SetNext(mainMemory)
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Access runs one memory access through the hierarchy: it forwards to
// L1, bumps the aggregate counters, and periodically adapts the
// prefetcher. The stride predictor, if attached, is updated by L1 on its
// misses, not here on every access.
func (h *Hierarchy) Access(addr uint64, isWrite bool) (cachelevel.Result, error) {
	h.counters.Accesses++
	if isWrite {
		h.counters.Writes++
	} else {
		h.counters.Reads++
	}

	res, err := h.L1.Access(h.now, addr, isWrite)
	h.now++
	if err != nil {
		return cachelevel.Result{}, err
	}
	if !res.Hit {
		h.counters.L1Misses++
	}

	if h.adaptive != nil && h.counters.Accesses%adaptPeriod == 0 {
		h.adaptive.Adapt()
		strategy, distance := h.adaptive.Current()
		h.L1.SetPrefetchTuning(strategy, distance)
	}

	return res, nil
}

// Counters returns a snapshot of the aggregate statistics.
func (h *Hierarchy) Counters() Counters { return h.counters }

// LevelCounters returns each level's own counters keyed by name, for
// internal/stats to render a per-level report.
func (h *Hierarchy) LevelCounters() map[string]cachelevel.Counters {
	out := map[string]cachelevel.Counters{h.L1.Name: h.L1.Counters}
	if h.L2 != nil {
		out[h.L2.Name] = h.L2.Counters
	}
	return out
}

// Now returns the current value of the hierarchy-owned access
// timestamp, mostly useful for tests that want to assert ordering.
func (h *Hierarchy) Now() uint64 { return h.now }

// Flush drains any write-combining buffers attached to L1 or L2,
// forwarding their pending entries down the hierarchy. Call this once a
// trace is fully replayed so buffered writes are not silently lost.
func (h *Hierarchy) Flush() error {
	if err := h.L1.Flush(h.now); err != nil {
		return err
	}
	if h.L2 != nil {
		if err := h.L2.Flush(h.now); err != nil {
			return err
		}
	}
	return nil
}
