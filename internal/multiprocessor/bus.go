// Package multiprocessor implements the narrow interconnect boundary
// spec.md §1 carves out as a future collaborator: something that "owns N
// core instances and routes coherence messages." Bus is intentionally
// thin — enough to drive the MESI scenarios of spec.md §8 end-to-end
// across more than one core's L1, not a cycle-accurate interconnect
// model (spec.md's own Non-goals exclude that).
package multiprocessor

import (
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/coherence"
)

// Core is the capability the bus needs from one processor's L1: apply a
// remote coherence event to whatever block (if any) holds an address.
// internal/cachelevel.Level satisfies this.
type Core interface {
	ApplyCoherenceEvent(now uint64, addr uint64, event coherence.Event) error
}

// Bus fans a remote coherence event out to every registered core except
// the one that originated the access. It owns no cache state itself —
// only the registry of cores — mirroring the teacher's coordinator
// broadcasting an operation to every registered node without owning any
// node's data.
type Bus struct {
	cores []Core
}

// NewBus returns an empty bus with no cores registered.
func NewBus() *Bus {
	return &Bus{}
}

// Register adds a core to the bus, returning the index to pass as
// originator to Broadcast.
func (b *Bus) Register(core Core) int {
	b.cores = append(b.cores, core)
	return len(b.cores) - 1
}

// Broadcast applies event to addr on every core except originator,
// returning the first error encountered (if any), after attempting
// delivery to all cores — matching the dispatcher's "collect all
// errors, keep going" posture rather than aborting at the first
// failure.
func (b *Bus) Broadcast(now uint64, originator int, addr uint64, event coherence.Event) error {
	var first error
	for i, core := range b.cores {
		if i == originator {
			continue
		}
		if err := core.ApplyCoherenceEvent(now, addr, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NotifyLocalRead tells every other core that originator just performed
// a local read, which may require them to downgrade a Modified copy to
// Shared (spec.md §4.8's remote-read row).
func (b *Bus) NotifyLocalRead(now uint64, originator int, addr uint64) error {
	return b.Broadcast(now, originator, addr, coherence.RemoteRead)
}

// NotifyLocalWrite tells every other core that originator just wrote
// addr, invalidating any copy they hold (spec.md §4.8's remote-write
// row).
func (b *Bus) NotifyLocalWrite(now uint64, originator int, addr uint64) error {
	return b.Broadcast(now, originator, addr, coherence.RemoteWrite)
}

// NumCores reports how many cores are registered.
func (b *Bus) NumCores() int { return len(b.cores) }

var _ Core = (*cachelevel.Level)(nil)
