package writepolicy

// CombiningBuffer coalesces a write to a block address that is already
// pending into that entry. When it is full, a write to a new block
// evicts the oldest-inserted entry; Flush drains all entries
// oldest-first. A cache level routes every write-through forward through
// it when one is attached. It models the write-combining
// buffer of spec.md §4.2's "combining buffer" extension, sitting between
// a cache level and the next level down.
type CombiningBuffer struct {
	capacity int
	order    []uint64
	pending  map[uint64]int // blockAddr -> count of coalesced writes
}

// NewCombiningBuffer returns an empty buffer holding up to capacity
// distinct block addresses.
func NewCombiningBuffer(capacity int) *CombiningBuffer {
	return &CombiningBuffer{
		capacity: capacity,
		pending:  make(map[uint64]int),
	}
}

// TryWrite coalesces a write into the buffer. It returns the block
// addresses evicted to make room, oldest first, which the caller must
// forward to the next level before the new write is accepted.
func (b *CombiningBuffer) TryWrite(blockAddr uint64) (evicted []uint64) {
	if _, ok := b.pending[blockAddr]; ok {
		b.pending[blockAddr]++
		return nil
	}
	for len(b.order) >= b.capacity {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.pending, oldest)
		evicted = append(evicted, oldest)
	}
	b.order = append(b.order, blockAddr)
	b.pending[blockAddr] = 1
	return evicted
}

// Flush drains every pending entry, oldest first, for forwarding to the
// next level (e.g. at end of simulation).
func (b *CombiningBuffer) Flush() []uint64 {
	flushed := b.order
	b.order = nil
	b.pending = make(map[uint64]int)
	return flushed
}

// CoalescedCount reports how many writes were merged into blockAddr's
// pending entry, or 0 if it is not currently buffered.
func (b *CombiningBuffer) CoalescedCount(blockAddr uint64) int {
	return b.pending[blockAddr]
}

// Len reports how many distinct block addresses are currently buffered.
func (b *CombiningBuffer) Len() int {
	return len(b.order)
}
