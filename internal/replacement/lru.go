package replacement

// LRU keeps ways ordered from most- to least-recently-used. On access or
// install, the way moves to the front; the victim is always the way at
// the back that's still valid.
type LRU struct {
	order []int // order[0] is most-recently-used
}

// NewLRU returns an LRU policy for a set with the given associativity.
func NewLRU(associativity int) *LRU {
	l := &LRU{}
	l.Reset()
	l.order = make([]int, associativity)
	for i := range l.order {
		l.order[i] = i
	}
	return l
}

func (l *LRU) Reset() {
	for i := range l.order {
		l.order[i] = i
	}
}

func (l *LRU) promote(way int) {
	for i, w := range l.order {
		if w == way {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.order = append([]int{way}, l.order...)
}

func (l *LRU) OnAccess(way int)  { l.promote(way) }
func (l *LRU) OnInstall(way int) { l.promote(way) }

func (l *LRU) SelectVictim(validMask []bool) (int, error) {
	if len(validMask) == 0 {
		return 0, errNoWays()
	}
	if way := firstInvalid(validMask); way >= 0 {
		return way, nil
	}
	for i := len(l.order) - 1; i >= 0; i-- {
		way := l.order[i]
		if way < len(validMask) && validMask[way] {
			return way, nil
		}
	}
	return 0, errNoWays()
}
