package writepolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownPolicies(t *testing.T) {
	_, err := New("Bogus", "")
	require.Error(t, err)

	_, err = New("WriteBack", "Bogus")
	require.Error(t, err)
}

func TestNewDefaultsAllocationToWriteAllocate(t *testing.T) {
	p, err := New("WriteBack", "")
	require.NoError(t, err)
	assert.Equal(t, WriteAllocate, p.Allocation)
}

func TestWriteBackWriteAllocate(t *testing.T) {
	p, err := New("WriteBack", "WriteAllocate")
	require.NoError(t, err)

	hit := p.OnWriteHit()
	assert.True(t, hit.MarkDirtyAndModified)
	assert.False(t, hit.ForwardToNext)

	miss := p.OnWriteMiss()
	assert.True(t, miss.Install)
	assert.True(t, miss.MarkDirtyAndModified)
	assert.False(t, miss.ForwardToNext)
}

func TestWriteBackNoWriteAllocate(t *testing.T) {
	p, err := New("WriteBack", "NoWriteAllocate")
	require.NoError(t, err)

	hit := p.OnWriteHit()
	assert.True(t, hit.MarkDirtyAndModified)

	miss := p.OnWriteMiss()
	assert.False(t, miss.Install)
	assert.True(t, miss.ForwardToNext)
}

func TestWriteThroughWriteAllocate(t *testing.T) {
	p, err := New("WriteThrough", "WriteAllocate")
	require.NoError(t, err)

	hit := p.OnWriteHit()
	assert.False(t, hit.MarkDirtyAndModified)
	assert.True(t, hit.ForwardToNext)

	miss := p.OnWriteMiss()
	assert.True(t, miss.Install)
	assert.False(t, miss.MarkDirtyAndModified)
	assert.True(t, miss.ForwardToNext)
}

func TestWriteThroughNoWriteAllocate(t *testing.T) {
	p, err := New("WriteThrough", "NoWriteAllocate")
	require.NoError(t, err)

	hit := p.OnWriteHit()
	assert.True(t, hit.ForwardToNext)

	miss := p.OnWriteMiss()
	assert.False(t, miss.Install)
	assert.True(t, miss.ForwardToNext)
}

func TestCombiningBufferCoalescesRepeatedWrites(t *testing.T) {
	b := NewCombiningBuffer(2)

	evicted := b.TryWrite(0x100)
	assert.Empty(t, evicted)
	evicted = b.TryWrite(0x100)
	assert.Empty(t, evicted)
	assert.Equal(t, 2, b.CoalescedCount(0x100))
	assert.Equal(t, 1, b.Len())
}

func TestCombiningBufferEvictsOldestWhenFull(t *testing.T) {
	b := NewCombiningBuffer(2)
	b.TryWrite(0x100)
	b.TryWrite(0x200)

	evicted := b.TryWrite(0x300)
	require.Len(t, evicted, 1)
	assert.Equal(t, uint64(0x100), evicted[0])
	assert.Equal(t, 0, b.CoalescedCount(0x100))
	assert.Equal(t, 2, b.Len())
}

func TestCombiningBufferFlush(t *testing.T) {
	b := NewCombiningBuffer(4)
	b.TryWrite(0x100)
	b.TryWrite(0x200)

	flushed := b.Flush()
	assert.Equal(t, []uint64{0x100, 0x200}, flushed)
	assert.Equal(t, 0, b.Len())
}
