package cache

import (
	"testing"

	"github.com/cachesim/cachesim/internal/coherence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometryRejectsNonPowerOfTwoSize(t *testing.T) {
	_, err := NewGeometry(1000, 1, 64)
	require.Error(t, err)
}

func TestNewGeometryRejectsUnevenDivision(t *testing.T) {
	_, err := NewGeometry(1024, 5, 64)
	require.Error(t, err)
}

func TestNewGeometryComputesSets(t *testing.T) {
	g, err := NewGeometry(1024, 1, 64)
	require.NoError(t, err)
	assert.Equal(t, 16, g.NumSets)
}

func TestPartitionMatchesDocumentedConvention(t *testing.T) {
	g, err := NewGeometry(1024, 1, 64)
	require.NoError(t, err)

	tag, set, offset := g.Partition(0x1040)
	assert.Equal(t, uint64(0x1040)/64, tag)
	assert.Equal(t, int(tag%16), set)
	assert.Equal(t, 0, offset)
}

func TestSetLookupFindsValidMatchingTag(t *testing.T) {
	s := NewSet(4)
	s.Ways[2].Install(99, coherence.Exclusive, 1, false)

	way, found := s.Lookup(99)
	require.True(t, found)
	assert.Equal(t, 2, way)

	_, found = s.Lookup(100)
	assert.False(t, found)
}

func TestSetHasInvalidWay(t *testing.T) {
	s := NewSet(2)
	assert.True(t, s.HasInvalidWay())

	s.Ways[0].Install(1, coherence.Shared, 1, false)
	s.Ways[1].Install(2, coherence.Shared, 1, false)
	assert.False(t, s.HasInvalidWay())
}

func TestBlockInvariantDirtyOnlyWhenModified(t *testing.T) {
	var b Block
	b.Install(5, coherence.Modified, 1, false)
	assert.True(t, b.Dirty)

	b.Install(5, coherence.Shared, 2, false)
	assert.False(t, b.Dirty)
}
