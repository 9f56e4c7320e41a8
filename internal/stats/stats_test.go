package stats

import (
	"strings"
	"testing"

	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotSortsLevelsByName(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{
		"L2": {Hits: 1},
		"L1": {Hits: 2},
	})
	require.Len(t, snap.Levels, 2)
	assert.Equal(t, "L1", snap.Levels[0].Name)
	assert.Equal(t, "L2", snap.Levels[1].Name)
}

func TestHitRateComputation(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{
		"L1": {Hits: 3, Misses: 1},
	})
	assert.InDelta(t, 0.75, snap.Levels[0].HitRate(), 1e-9)
}

func TestHitRateZeroAccessesIsZero(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{"L1": {}})
	assert.Equal(t, 0.0, snap.Levels[0].HitRate())
}

func TestReportIncludesEveryLevel(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{
		"L1": {Hits: 3, Misses: 1},
		"L2": {Hits: 0, Misses: 1},
	})
	report := snap.Report()
	assert.Contains(t, report, "L1:")
	assert.Contains(t, report, "L2:")
}

func TestWriteCSVHasHeaderAndRows(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{
		"L1": {Hits: 3, Misses: 1, Compulsory: 1},
	})
	var buf strings.Builder
	require.NoError(t, snap.WriteCSV(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "metric,value", lines[0])
	assert.Contains(t, buf.String(), "L1.hits,3")
	assert.Contains(t, buf.String(), "L1.compulsory,1")
}

func TestEmptySnapshotProducesEmptyReport(t *testing.T) {
	snap := NewSnapshot(map[string]cachelevel.Counters{})
	assert.Empty(t, snap.Report())

	var buf strings.Builder
	require.NoError(t, snap.WriteCSV(&buf))
	assert.Equal(t, "metric,value\n", buf.String())
}
