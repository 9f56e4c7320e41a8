package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/cachesim/cachesim/internal/cache"
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/cachesim/cachesim/internal/replacement"
	"github.com/cachesim/cachesim/internal/trace"
	"github.com/cachesim/cachesim/internal/writepolicy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHierarchyBuilder(t *testing.T) Builder {
	return func(chunkIndex int) (*hierarchy.Hierarchy, error) {
		geom, err := cache.NewGeometry(1024, 2, 64)
		require.NoError(t, err)
		wp, err := writepolicy.New("WriteBack", "WriteAllocate")
		require.NoError(t, err)
		l1, err := cachelevel.New("L1", geom, replacement.KindLRU, int64(chunkIndex)+1, wp)
		if err != nil {
			return nil, err
		}
		return hierarchy.New(l1, nil), nil
	}
}

func TestRunPartitionsAndMergesCounters(t *testing.T) {
	records := make([]trace.Record, 0, 16)
	for i := 0; i < 16; i++ {
		records = append(records, trace.Record{Op: trace.OpRead, Address: uint64(i) * 64})
	}

	result, err := Run(context.Background(), records, newHierarchyBuilder(t), Options{Workers: 4})
	require.NoError(t, err)

	assert.EqualValues(t, 16, result.Merged.Accesses)
	assert.EqualValues(t, 16, result.Merged.Reads)
	assert.Len(t, result.Chunks, 4)

	l1 := result.Levels["L1"]
	assert.EqualValues(t, 16, l1.Reads)
	assert.EqualValues(t, l1.Hits+l1.Misses, l1.Reads+l1.Writes)
}

func TestRunWithSingleWorkerMatchesSequentialAccess(t *testing.T) {
	records := []trace.Record{
		{Op: trace.OpRead, Address: 0x0000},
		{Op: trace.OpRead, Address: 0x0000},
		{Op: trace.OpWrite, Address: 0x0040},
	}
	result, err := Run(context.Background(), records, newHierarchyBuilder(t), Options{Workers: 1})
	require.NoError(t, err)

	require.Len(t, result.Chunks, 1)
	assert.EqualValues(t, 3, result.Chunks[0].Counters.Accesses)
	assert.EqualValues(t, 1, result.Chunks[0].Counters.Writes)
}

func TestRunFewerRecordsThanWorkersStillCoversAll(t *testing.T) {
	records := []trace.Record{
		{Op: trace.OpRead, Address: 0x0000},
		{Op: trace.OpRead, Address: 0x0040},
	}
	result, err := Run(context.Background(), records, newHierarchyBuilder(t), Options{Workers: 8})
	require.NoError(t, err)

	assert.EqualValues(t, 2, result.Merged.Accesses)
	for _, c := range result.Chunks {
		assert.LessOrEqual(t, c.Counters.Accesses, uint64(2))
	}
}

func TestRunEmptyTraceProducesZeroCounters(t *testing.T) {
	result, err := Run(context.Background(), nil, newHierarchyBuilder(t), Options{Workers: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 0, result.Merged.Accesses)
	require.Len(t, result.Chunks, 1)
}

func TestRunSurfacesBuilderError(t *testing.T) {
	records := []trace.Record{{Op: trace.OpRead, Address: 0}}
	boom := errors.New("boom")
	_, err := Run(context.Background(), records, func(int) (*hierarchy.Hierarchy, error) {
		return nil, boom
	}, Options{Workers: 1})
	require.Error(t, err)
}
