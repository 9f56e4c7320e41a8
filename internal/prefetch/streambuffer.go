// Package prefetch implements the prefetching strategies of spec.md
// §4.6: a FIFO stream buffer, a PC-indexed stride predictor, and an
// adaptive strategy selector built on top of both.
package prefetch

// StreamBuffer holds a run of consecutive block addresses fetched ahead
// of demand accesses. A hit only shifts the matched entry and everything
// before it out of the buffer (spec.md §4.4's `shift()`); it does not
// refill itself — the buffer runs dry after `depth` consecutive hits,
// and the next miss is what triggers a fresh Fill.
type StreamBuffer struct {
	blockSize uint64
	depth     int
	addrs     []uint64
}

// NewStreamBuffer returns an empty stream buffer of the given depth.
func NewStreamBuffer(blockSize uint64, depth int) *StreamBuffer {
	return &StreamBuffer{blockSize: blockSize, depth: depth}
}

// Fill replaces the buffer's contents with depth consecutive block
// addresses starting immediately after startBlockAddr.
func (s *StreamBuffer) Fill(startBlockAddr uint64) {
	s.addrs = make([]uint64, 0, s.depth)
	for i := 1; i <= s.depth; i++ {
		s.addrs = append(s.addrs, startBlockAddr+uint64(i)*s.blockSize)
	}
}

// Consume scans for blockAddr; on a match it discards that entry and
// everything before it, reporting a hit. An empty or non-matching
// buffer reports a miss and is left untouched.
func (s *StreamBuffer) Consume(blockAddr uint64) (hit bool) {
	for i, a := range s.addrs {
		if a == blockAddr {
			s.addrs = s.addrs[i+1:]
			return true
		}
	}
	return false
}

// Len reports how many addresses the buffer currently holds.
func (s *StreamBuffer) Len() int {
	return len(s.addrs)
}

// SetDepth changes the number of addresses a future Fill populates. It
// does not touch the buffer's current contents, so it takes effect on
// the next Fill rather than truncating or extending what is held now.
func (s *StreamBuffer) SetDepth(depth int) {
	s.depth = depth
}

// Reset empties the buffer.
func (s *StreamBuffer) Reset() {
	s.addrs = nil
}
