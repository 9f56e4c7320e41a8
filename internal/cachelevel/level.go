// Package cachelevel implements the central access protocol of
// spec.md §4.7: set lookup, hit/miss classification, replacement
// invocation, write-policy dispatch, coherence transitions, victim-cache
// and stream-buffer probing, writeback emission to the next level,
// adaptive prefetch dispatch gating, and write-combining.
package cachelevel

import (
	"github.com/cachesim/cachesim/internal/cache"
	"github.com/cachesim/cachesim/internal/coherence"
	"github.com/cachesim/cachesim/internal/prefetch"
	"github.com/cachesim/cachesim/internal/replacement"
	"github.com/cachesim/cachesim/internal/simerrors"
	"github.com/cachesim/cachesim/internal/victimcache"
	"github.com/cachesim/cachesim/internal/writepolicy"
)

// MissType classifies a miss per the literal, non-textbook rule of
// spec.md §4.7 step 4: Compulsory if the set that missed still has an
// invalid way, Capacity if no set anywhere has one, Conflict otherwise.
// Preserved as stated rather than "corrected" to a more conventional
// definition, since the exact counts are part of what a run reproduces.
type MissType int

const (
	MissNone MissType = iota
	MissCompulsory
	MissConflict
	MissCapacity
)

func (m MissType) String() string {
	switch m {
	case MissCompulsory:
		return "Compulsory"
	case MissConflict:
		return "Conflict"
	case MissCapacity:
		return "Capacity"
	default:
		return "None"
	}
}

// Result reports the outcome of one Access call.
type Result struct {
	Hit             bool
	MissType        MissType
	VictimCacheHit  bool
	StreamBufferHit bool
	WritebackIssued bool
}

// NextLevel is the capability a cache level needs from whatever sits
// below it — another Level, or the main-memory sentinel. A level refers
// to its next level but never owns it; the hierarchy injects the
// back-reference (spec.md §9 "Ownership of the next level").
type NextLevel interface {
	Access(now uint64, addr uint64, isWrite bool) (Result, error)
}

// Prefetcher is the capability a level needs to decide whether to issue
// a speculative install after a miss. internal/prefetch.StridePredictor
// satisfies this.
type Prefetcher interface {
	Observe(addr uint64) (predicted uint64, confident bool)
}

// Counters accumulates the statistics spec.md §4.7 and §8 require.
type Counters struct {
	Reads, Writes        uint64
	Hits, Misses         uint64
	Compulsory, Conflict uint64
	Capacity             uint64
	Writebacks           uint64
	VictimCacheHits      uint64
	StreamBufferHits     uint64
	PrefetchesIssued     uint64
	WritesCombined       uint64
}

// Level is one level of the cache hierarchy: geometry, sets, one
// replacement-policy instance per set, a write policy shared by all
// sets, and optional stream buffer / victim cache / prefetcher
// attachments.
type Level struct {
	Name     string
	Geometry cache.Geometry

	sets     []*cache.Set
	policies []replacement.Policy
	write    writepolicy.Policy

	next NextLevel

	streamBuffer *prefetch.StreamBuffer
	victim       *victimcache.VictimCache
	prefetcher   Prefetcher
	combining    *writepolicy.CombiningBuffer

	// adaptiveStrategy, once set by SetPrefetchTuning, switches the miss
	// path from running every attached prefetch mechanism unconditionally
	// to running only the one named by strategy.
	adaptiveStrategy bool
	strategy         prefetch.Strategy

	tracker *coherence.Tracker

	// PrefetchOutcome, if set, is told whether a block installed by the
	// prefetch side effect (step 11) was consumed by a later hit (true)
	// or evicted untouched (false). The hierarchy wires this to the
	// adaptive prefetcher's accuracy tracking.
	PrefetchOutcome func(useful bool)

	Counters Counters
}

// New constructs a level from its geometry, replacement-policy kind, an
// RNG seed (used only by Random), and its write policy. Sets start
// entirely Invalid.
func New(name string, geom cache.Geometry, kind replacement.Kind, seed int64, write writepolicy.Policy) (*Level, error) {
	l := &Level{
		Name:     name,
		Geometry: geom,
		write:    write,
		tracker:  coherence.NewTracker(),
	}
	l.sets = make([]*cache.Set, geom.NumSets)
	l.policies = make([]replacement.Policy, geom.NumSets)
	for i := 0; i < geom.NumSets; i++ {
		l.sets[i] = cache.NewSet(geom.Associativity)
		// Each set's RNG (when the kind is Random) is seeded from the
		// level seed offset by set index, so sets don't all draw the
		// same sequence while the level as a whole stays deterministic.
		policy, err := replacement.New(kind, geom.Associativity, seed+int64(i))
		if err != nil {
			return nil, err
		}
		l.policies[i] = policy
	}
	return l, nil
}

// SetNext injects the non-owning back-reference to the next level down.
func (l *Level) SetNext(next NextLevel) { l.next = next }

// AttachStreamBuffer wires an optional sequential-prefetch stream buffer
// into this level.
func (l *Level) AttachStreamBuffer(sb *prefetch.StreamBuffer) { l.streamBuffer = sb }

// AttachVictimCache wires an optional victim cache into this level.
func (l *Level) AttachVictimCache(vc *victimcache.VictimCache) { l.victim = vc }

// AttachPrefetcher wires an optional stride predictor into this level.
func (l *Level) AttachPrefetcher(p Prefetcher) { l.prefetcher = p }

// AttachCombiningBuffer wires an optional write-combining buffer into
// this level's write-through forwarding path.
func (l *Level) AttachCombiningBuffer(cb *writepolicy.CombiningBuffer) { l.combining = cb }

// SetPrefetchTuning updates which prefetch mechanism is live and how
// deep the stream buffer refills, from the hierarchy's adaptive
// prefetcher. Calling it at all switches the level into adaptive
// dispatch (see adaptiveStrategy).
func (l *Level) SetPrefetchTuning(strategy prefetch.Strategy, distance int) {
	l.adaptiveStrategy = true
	l.strategy = strategy
	if l.streamBuffer != nil {
		l.streamBuffer.SetDepth(distance)
	}
}

// streamBufferActive reports whether the stream buffer should
// participate in the current miss: always, unless adaptive dispatch has
// selected the stride predictor instead.
func (l *Level) streamBufferActive() bool {
	return l.streamBuffer != nil && (!l.adaptiveStrategy || l.strategy == prefetch.StrategyStream)
}

// prefetcherActive mirrors streamBufferActive for the stride predictor.
func (l *Level) prefetcherActive() bool {
	return l.prefetcher != nil && (!l.adaptiveStrategy || l.strategy == prefetch.StrategyStride)
}

// forwardWrite issues a write to the next level, or — when a
// write-combining buffer is attached — coalesces it there instead and
// only forwards whatever the buffer evicts to make room.
func (l *Level) forwardWrite(now uint64, addr uint64) error {
	if l.next == nil {
		return nil
	}
	if l.combining == nil {
		_, err := l.next.Access(now, addr, true)
		return err
	}
	tag, _, _ := l.Geometry.Partition(addr)
	l.Counters.WritesCombined++
	for _, evicted := range l.combining.TryWrite(l.Geometry.BlockAddr(tag)) {
		if _, err := l.next.Access(now, evicted, true); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains any write-combining buffer attached to this level,
// forwarding every pending entry to the next level. Call this once a
// run is over so buffered writes are not silently lost.
func (l *Level) Flush(now uint64) error {
	if l.combining == nil || l.next == nil {
		return nil
	}
	for _, addr := range l.combining.Flush() {
		if _, err := l.next.Access(now, addr, true); err != nil {
			return err
		}
	}
	return nil
}

// Tracker exposes the level's MESI transition counters.
func (l *Level) Tracker() *coherence.Tracker { return l.tracker }

func (l *Level) classifyMiss(missedSet *cache.Set) MissType {
	if missedSet.HasInvalidWay() {
		return MissCompulsory
	}
	for _, s := range l.sets {
		if s.HasInvalidWay() {
			return MissConflict
		}
	}
	return MissCapacity
}

// Access runs the full protocol of spec.md §4.7 for one (address,
// is_write) pair. now is a timestamp supplied by the caller — the
// hierarchy owns the single counter that backs it (spec.md §9), not the
// level, so independent hierarchies in the parallel dispatcher never
// interfere with each other's clocks.
func (l *Level) Access(now uint64, addr uint64, isWrite bool) (Result, error) {
	if isWrite {
		l.Counters.Writes++
	} else {
		l.Counters.Reads++
	}

	tag, setIdx, _ := l.Geometry.Partition(addr)
	set := l.sets[setIdx]
	policy := l.policies[setIdx]

	if way, found := set.Lookup(tag); found {
		return l.hit(now, addr, way, set, policy, isWrite)
	}
	return l.miss(now, addr, tag, set, setIdx, policy, isWrite)
}

func (l *Level) hit(now uint64, addr uint64, way int, set *cache.Set, policy replacement.Policy, isWrite bool) (Result, error) {
	block := &set.Ways[way]
	block.Touch(now)

	if block.Prefetched {
		block.Prefetched = false
		if l.PrefetchOutcome != nil {
			l.PrefetchOutcome(true)
		}
	}

	if isWrite {
		decision := l.write.OnWriteHit()
		if decision.MarkDirtyAndModified {
			if block.State != coherence.Modified {
				res := coherence.Transition(block.State, coherence.LocalWrite)
				if !res.Valid {
					return Result{}, simerrors.NewSimulationError("mesi-local-write", "no transition for local write from state "+block.State.String())
				}
				l.tracker.Record(block.State, res.Next)
				block.State = res.Next
			}
			block.Dirty = true
		}
		if decision.ForwardToNext {
			if err := l.forwardWrite(now, addr); err != nil {
				return Result{}, err
			}
		}
	}

	policy.OnAccess(way)
	l.Counters.Hits++
	return Result{Hit: true}, nil
}

func (l *Level) miss(now uint64, addr uint64, tag uint64, set *cache.Set, setIdx int, policy replacement.Policy, isWrite bool) (Result, error) {
	missType := l.classifyMiss(set)
	blockAddr := l.Geometry.BlockAddr(tag)

	// Stream buffer probe (step 5): reads only, consumed by shifting. The
	// buffer is not refilled here — it runs dry after `depth` hits, and
	// the next miss triggers a fresh Fill below.
	if !isWrite && l.streamBufferActive() {
		if l.streamBuffer.Consume(blockAddr) {
			l.Counters.Hits++
			l.Counters.StreamBufferHits++
			return Result{Hit: true, StreamBufferHit: true}, nil
		}
	}

	// Victim-cache probe (step 6): swap the entry back into this set.
	if l.victim != nil {
		if entry, ok := l.victim.Swap(blockAddr); ok {
			if err := l.installFromVictimCache(now, set, policy, entry); err != nil {
				return Result{}, err
			}
			l.Counters.Hits++
			l.Counters.VictimCacheHits++
			return Result{Hit: true, VictimCacheHit: true}, nil
		}
	}

	// Genuine miss: commit the classification counters.
	l.Counters.Misses++
	switch missType {
	case MissCompulsory:
		l.Counters.Compulsory++
	case MissConflict:
		l.Counters.Conflict++
	case MissCapacity:
		l.Counters.Capacity++
	}

	var missDecision writepolicy.MissDecision
	install := true
	if isWrite {
		missDecision = l.write.OnWriteMiss()
		install = missDecision.Install
	}

	if !install {
		// No-write-allocate: forward straight through, never touch the
		// cache array.
		if missDecision.ForwardToNext {
			if err := l.forwardWrite(now, addr); err != nil {
				return Result{}, err
			}
		}
		return Result{Hit: false, MissType: missType}, nil
	}

	// Step 7: refill from the next level.
	if l.next != nil {
		if _, err := l.next.Access(now, blockAddr, false); err != nil {
			return Result{}, err
		}
	}

	victimWay, err := policy.SelectVictim(set.ValidMask())
	if err != nil {
		return Result{}, err
	}

	writebackIssued, err := l.evictAndMakeRoom(now, set, victimWay)
	if err != nil {
		return Result{}, err
	}

	installState := coherence.Transition(coherence.Invalid, coherence.LocalReadExclusive).Next
	set.Ways[victimWay].Install(tag, installState, now, false)
	policy.OnInstall(victimWay)

	if isWrite && missDecision.MarkDirtyAndModified {
		res := coherence.Transition(coherence.Invalid, coherence.LocalWrite)
		l.tracker.Record(coherence.Invalid, res.Next)
		set.Ways[victimWay].State = res.Next
		set.Ways[victimWay].Dirty = true
	}
	if isWrite && missDecision.ForwardToNext {
		if err := l.forwardWrite(now, addr); err != nil {
			return Result{}, err
		}
	}

	// Sequential stream-buffer refill: every genuine read miss re-arms
	// the buffer with `depth` fresh addresses following the one just
	// installed, so it runs dry and refills on a fixed cadence rather
	// than staying topped up forever (spec.md §4.4, §8 scenario 2).
	if !isWrite && l.streamBufferActive() {
		l.streamBuffer.Fill(blockAddr)
	}

	// Step 11: prefetch side effect.
	if l.prefetcherActive() {
		if predicted, confident := l.prefetcher.Observe(addr); confident {
			l.prefetchInstall(now, predicted)
		}
	}

	return Result{Hit: false, MissType: missType, WritebackIssued: writebackIssued}, nil
}

// evictAndMakeRoom handles the shared eviction bookkeeping: writeback if
// the victim way's block is dirty, deposit into the victim cache if
// attached, and report a useless-prefetch outcome if the evicted block
// was never touched.
func (l *Level) evictAndMakeRoom(now uint64, set *cache.Set, victimWay int) (writebackIssued bool, err error) {
	evicted := set.Ways[victimWay]
	if !evicted.Valid {
		return false, nil
	}

	res := coherence.Transition(evicted.State, coherence.Eviction)
	l.tracker.Record(evicted.State, res.Next)

	if res.WritebackRequired && l.next != nil {
		if _, err := l.next.Access(now, l.Geometry.BlockAddr(evicted.Tag), true); err != nil {
			return false, err
		}
		l.Counters.Writebacks++
		writebackIssued = true
	}

	if evicted.Prefetched && l.PrefetchOutcome != nil {
		l.PrefetchOutcome(false)
	}

	if l.victim != nil {
		l.victim.Insert(victimcache.Entry{
			BlockAddr: l.Geometry.BlockAddr(evicted.Tag),
			State:     evicted.State,
			Dirty:     evicted.Dirty,
		})
	}
	return writebackIssued, nil
}

// installFromVictimCache re-installs a victim-cache hit into set,
// performing the atomic swap spec.md §4.3 and §9 describe: whatever
// block occupies the chosen way is displaced into the victim cache in
// the same step.
func (l *Level) installFromVictimCache(now uint64, set *cache.Set, policy replacement.Policy, entry victimcache.Entry) error {
	way, err := policy.SelectVictim(set.ValidMask())
	if err != nil {
		return err
	}
	if _, err := l.evictAndMakeRoom(now, set, way); err != nil {
		return err
	}
	tag, _, _ := l.Geometry.Partition(entry.BlockAddr)
	set.Ways[way].Install(tag, entry.State, now, false)
	set.Ways[way].Dirty = entry.Dirty
	policy.OnInstall(way)
	return nil
}

// prefetchInstall speculatively installs the block at prefetchAddr,
// displacing whatever the replacement policy would otherwise pick. It
// never recurses into the next level: a prefetch optimistically claims a
// way without modeling the fetch traffic that would bring real data in,
// matching spec.md §4.7 step 11's framing of this as a local
// "probe/install", distinct from the demand-fetch path of step 7.
func (l *Level) prefetchInstall(now uint64, prefetchAddr uint64) {
	tag, setIdx, _ := l.Geometry.Partition(prefetchAddr)
	set := l.sets[setIdx]
	if _, found := set.Lookup(tag); found {
		return
	}
	policy := l.policies[setIdx]
	way, err := policy.SelectVictim(set.ValidMask())
	if err != nil {
		return
	}
	if _, err := l.evictAndMakeRoom(now, set, way); err != nil {
		return
	}
	set.Ways[way].Install(tag, coherence.Exclusive, now, true)
	policy.OnInstall(way)
	l.Counters.PrefetchesIssued++
	if l.streamBufferActive() {
		l.streamBuffer.Fill(l.Geometry.BlockAddr(tag))
	}
}

// ApplyCoherenceEvent applies a remote coherence event (from a
// multiprocessor bus) to whichever block in this level holds addr, if
// any. It is a no-op if the block is not resident, or if the event has
// no transition from the block's current state. Used by
// internal/multiprocessor.Bus to fan out remote read/write/invalidation
// traffic without routing it through Access, which only models local
// events.
func (l *Level) ApplyCoherenceEvent(now uint64, addr uint64, event coherence.Event) error {
	tag, setIdx, _ := l.Geometry.Partition(addr)
	set := l.sets[setIdx]
	way, found := set.Lookup(tag)
	if !found {
		return nil
	}
	block := &set.Ways[way]

	res := coherence.Transition(block.State, event)
	if !res.Valid {
		// No table entry for this pair (e.g. a remote read of a Shared
		// copy): the block keeps its state.
		return nil
	}
	l.tracker.Record(block.State, res.Next)

	if res.WritebackRequired && l.next != nil {
		if _, err := l.next.Access(now, l.Geometry.BlockAddr(block.Tag), true); err != nil {
			return err
		}
		l.Counters.Writebacks++
	}

	block.State = res.Next
	if res.Next != coherence.Modified {
		// A writeback (if any) just flushed the block; Shared/Exclusive
		// are never dirty per the cache.Block invariant.
		block.Dirty = false
	}
	if res.Next == coherence.Invalid {
		block.Invalidate()
	}
	return nil
}
