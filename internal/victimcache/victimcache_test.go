package victimcache

import (
	"testing"

	"github.com/cachesim/cachesim/internal/coherence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMiss(t *testing.T) {
	v := New(2)
	_, ok := v.Lookup(0x100)
	assert.False(t, ok)
}

func TestInsertAndLookupHit(t *testing.T) {
	v := New(2)
	evicted, didEvict := v.Insert(Entry{BlockAddr: 0x100, State: coherence.Shared})
	assert.False(t, didEvict)
	assert.Zero(t, evicted)

	e, ok := v.Lookup(0x100)
	require.True(t, ok)
	assert.Equal(t, coherence.Shared, e.State)
}

func TestInsertEvictsOldestWhenFull(t *testing.T) {
	v := New(2)
	v.Insert(Entry{BlockAddr: 0x100})
	v.Insert(Entry{BlockAddr: 0x200})

	evicted, didEvict := v.Insert(Entry{BlockAddr: 0x300})
	require.True(t, didEvict)
	assert.Equal(t, uint64(0x100), evicted.BlockAddr)
	assert.Equal(t, 2, v.Len())

	_, ok := v.Lookup(0x100)
	assert.False(t, ok)
}

func TestSwapRemovesEntry(t *testing.T) {
	v := New(2)
	v.Insert(Entry{BlockAddr: 0x100, Dirty: true})

	e, ok := v.Swap(0x100)
	require.True(t, ok)
	assert.True(t, e.Dirty)
	assert.Equal(t, 0, v.Len())

	_, ok = v.Swap(0x100)
	assert.False(t, ok)
}

func TestZeroCapacityAlwaysEvictsInserted(t *testing.T) {
	v := New(0)
	evicted, didEvict := v.Insert(Entry{BlockAddr: 0x100})
	assert.True(t, didEvict)
	assert.Equal(t, uint64(0x100), evicted.BlockAddr)
	assert.Equal(t, 0, v.Len())
}
