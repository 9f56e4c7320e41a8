package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLevelConfig() LevelConfig {
	return LevelConfig{
		Size:              1024,
		Associativity:     2,
		BlockSize:         64,
		ReplacementPolicy: "LRU",
		WritePolicy:       "WriteBack",
	}
}

func TestBuildLevelConstructsWorkingLevel(t *testing.T) {
	level, err := BuildLevel("L1", validLevelConfig(), 1)
	require.NoError(t, err)
	assert.Equal(t, "L1", level.Name)
}

func TestBuildLevelAttachesStreamBufferWhenPrefetchEnabled(t *testing.T) {
	l := validLevelConfig()
	l.Prefetch = &PrefetchConfig{Enabled: true, Distance: 4}
	level, err := BuildLevel("L1", l, 1)
	require.NoError(t, err)
	require.NotNil(t, level)

	// The first read miss fills the stream buffer with the following
	// blocks, so a read of the next block is a stream-buffer hit.
	_, err = level.Access(0, 0x0000, false)
	require.NoError(t, err)
	res, err := level.Access(1, 0x0040, false)
	require.NoError(t, err)
	assert.True(t, res.StreamBufferHit)
}

func TestBuildVictimCacheNilWhenAbsent(t *testing.T) {
	c := &Config{L1: validLevelConfig()}
	assert.Nil(t, c.BuildVictimCache())
}

func TestBuildVictimCachePresentWhenEnabled(t *testing.T) {
	c := &Config{L1: validLevelConfig(), VictimCache: &VictimCacheConfig{Enabled: true, Size: 4}}
	vc := c.BuildVictimCache()
	require.NotNil(t, vc)
	assert.Equal(t, 0, vc.Len())
}

func TestAdaptiveBoundsDefaultsWhenUnspecified(t *testing.T) {
	l := validLevelConfig()
	l.Prefetch = &PrefetchConfig{Enabled: true, Adaptive: true, Distance: 4}
	distance, min, max, ok := AdaptiveBounds(l)
	require.True(t, ok)
	assert.Equal(t, 4, distance)
	assert.Equal(t, 1, min)
	assert.Equal(t, 16, max)
}

func TestAdaptiveBoundsFalseWhenNotAdaptive(t *testing.T) {
	l := validLevelConfig()
	l.Prefetch = &PrefetchConfig{Enabled: true, Distance: 4}
	_, _, _, ok := AdaptiveBounds(l)
	assert.False(t, ok)
}

func TestBuildCombiningBufferNilWhenAbsent(t *testing.T) {
	c := &Config{L1: validLevelConfig()}
	assert.Nil(t, c.BuildCombiningBuffer())
}

func TestBuildCombiningBufferPresentWhenEnabled(t *testing.T) {
	c := &Config{L1: validLevelConfig(), WriteCombining: &WriteCombiningConfig{Enabled: true, Size: 4}}
	cb := c.BuildCombiningBuffer()
	require.NotNil(t, cb)
	assert.Equal(t, 0, cb.Len())
}
