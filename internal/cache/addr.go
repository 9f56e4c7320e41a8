package cache

import "github.com/cachesim/cachesim/internal/simerrors"

// Geometry describes how an address space is carved into blocks and sets
// for one cache level: size in bytes, associativity (ways per set), and
// block size in bytes. NumSets is derived from the other three fields by
// NewGeometry.
type Geometry struct {
	Size          int
	Associativity int
	BlockSize     int
	NumSets       int
}

// NewGeometry validates and constructs a Geometry from the raw
// configuration fields. All three inputs must be positive, Size and
// BlockSize must be powers of two, and Size must be divisible by
// Associativity*BlockSize.
func NewGeometry(size, associativity, blockSize int) (Geometry, error) {
	if size <= 0 {
		return Geometry{}, simerrors.NewConfigurationError("size", "must be positive")
	}
	if associativity <= 0 {
		return Geometry{}, simerrors.NewConfigurationError("associativity", "must be positive")
	}
	if blockSize <= 0 {
		return Geometry{}, simerrors.NewConfigurationError("block_size", "must be positive")
	}
	if !isPowerOfTwo(size) {
		return Geometry{}, simerrors.NewConfigurationError("size", "must be a power of two")
	}
	if !isPowerOfTwo(blockSize) {
		return Geometry{}, simerrors.NewConfigurationError("block_size", "must be a power of two")
	}
	waySize := associativity * blockSize
	if size%waySize != 0 {
		return Geometry{}, simerrors.NewConfigurationError("size", "must be divisible by associativity*block_size")
	}
	numSets := size / waySize
	return Geometry{Size: size, Associativity: associativity, BlockSize: blockSize, NumSets: numSets}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Partition splits addr into (tag, setIndex, offset) per the convention
// spec.md §9's open question resolves explicitly: the tag is addr /
// BlockSize (not addr / (BlockSize*NumSets)), so it redundantly contains
// the set index. That redundancy is harmless because every lookup
// compares tags for equality within a single set — the set index is
// already fixed by which set you're scanning.
func (g Geometry) Partition(addr uint64) (tag uint64, setIndex int, offset int) {
	blockAddr := addr / uint64(g.BlockSize)
	tag = blockAddr
	setIndex = int(blockAddr % uint64(g.NumSets))
	offset = int(addr % uint64(g.BlockSize))
	return tag, setIndex, offset
}

// BlockAddr returns the block-aligned address (offset cleared) that a
// tag corresponds to. It is Partition's inverse, modulo the offset.
func (g Geometry) BlockAddr(tag uint64) uint64 {
	return tag * uint64(g.BlockSize)
}
