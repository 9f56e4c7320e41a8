package replacement

import (
	"math/bits"

	"github.com/cachesim/cachesim/internal/simerrors"
)

// TreePLRU approximates LRU with associativity-1 bits forming a binary
// tree. Each bit points away from the subtree accessed most recently;
// SelectVictim follows the bits from the root down to a leaf. Requires a power-of-two associativity, since the tree only has a
// clean binary shape then.
type TreePLRU struct {
	bits          []bool
	associativity int
	depth         int
}

// NewTreePLRU returns a Tree-PLRU policy. associativity must be a power
// of two; anything else is a configuration error since the tree has no
// natural shape otherwise.
func NewTreePLRU(associativity int) (*TreePLRU, error) {
	if associativity <= 0 || associativity&(associativity-1) != 0 {
		return nil, simerrors.NewConfigurationError("replacement_policy", "PLRU requires a power-of-two associativity")
	}
	p := &TreePLRU{associativity: associativity, depth: bits.Len(uint(associativity)) - 1}
	p.Reset()
	return p, nil
}

func (p *TreePLRU) Reset() {
	p.bits = make([]bool, p.associativity-1)
}

// pathBranches returns, MSB-first, the depth binary digits of way.
func (p *TreePLRU) pathBranches(way int) []bool {
	branches := make([]bool, p.depth)
	for i := p.depth - 1; i >= 0; i-- {
		branches[i] = way&1 == 1
		way >>= 1
	}
	return branches
}

func (p *TreePLRU) touch(way int) {
	branches := p.pathBranches(way)
	node := 0
	for _, branch := range branches {
		// Point the bit away from the side we just took.
		p.bits[node] = !branch
		if branch {
			node = 2*node + 2
		} else {
			node = 2*node + 1
		}
	}
}

func (p *TreePLRU) OnAccess(way int)  { p.touch(way) }
func (p *TreePLRU) OnInstall(way int) { p.touch(way) }

func (p *TreePLRU) SelectVictim(validMask []bool) (int, error) {
	if len(validMask) == 0 {
		return 0, errNoWays()
	}
	if way := firstInvalid(validMask); way >= 0 {
		return way, nil
	}
	node := 0
	way := 0
	for level := 0; level < p.depth; level++ {
		branch := p.bits[node]
		way <<= 1
		if branch {
			way |= 1
			node = 2*node + 2
		} else {
			node = 2*node + 1
		}
	}
	return way, nil
}
