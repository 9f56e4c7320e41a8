// Package stats renders the per-level statistics a run produces into a
// human-readable report and a CSV export, the minimal internalization
// of the "human-readable statistics formatting" external collaborator
// spec.md §1 names (a richer TUI/chart layer is explicitly out of
// scope).
package stats

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/cachesim/cachesim/internal/cachelevel"
)

// LevelSnapshot captures one cache level's counters at report time.
type LevelSnapshot struct {
	Name     string
	Counters cachelevel.Counters
}

// HitRate returns hits / (hits + misses), or 0 for an untouched level.
func (s LevelSnapshot) HitRate() float64 {
	total := s.Counters.Hits + s.Counters.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Counters.Hits) / float64(total)
}

// Snapshot aggregates every level's counters for one completed run.
type Snapshot struct {
	Levels []LevelSnapshot
}

// NewSnapshot builds a Snapshot from named levels, sorted by name so
// report ordering is deterministic regardless of the order levels were
// registered in.
func NewSnapshot(levels map[string]cachelevel.Counters) Snapshot {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	slices.Sort(names)

	snap := Snapshot{Levels: make([]LevelSnapshot, 0, len(names))}
	for _, name := range names {
		snap.Levels = append(snap.Levels, LevelSnapshot{Name: name, Counters: levels[name]})
	}
	return snap
}

// Report renders a plain-text table: one row per level with hit/miss
// counts, miss-type breakdown, and derived hit rate.
func (s Snapshot) Report() string {
	var out string
	for _, lvl := range s.Levels {
		c := lvl.Counters
		out += fmt.Sprintf(
			"%s: accesses=%d hits=%d misses=%d (compulsory=%d conflict=%d capacity=%d) writebacks=%d hit_rate=%.4f\n",
			lvl.Name, c.Reads+c.Writes, c.Hits, c.Misses, c.Compulsory, c.Conflict, c.Capacity, c.Writebacks, lvl.HitRate(),
		)
	}
	return out
}

// metricRows flattens a Snapshot into the metric/value pairs WriteCSV
// emits, in a fixed, sorted order.
func (s Snapshot) metricRows() [][2]string {
	var rows [][2]string
	for _, lvl := range s.Levels {
		c := lvl.Counters
		prefix := lvl.Name + "."
		rows = append(rows,
			[2]string{prefix + "reads", strconv.FormatUint(c.Reads, 10)},
			[2]string{prefix + "writes", strconv.FormatUint(c.Writes, 10)},
			[2]string{prefix + "hits", strconv.FormatUint(c.Hits, 10)},
			[2]string{prefix + "misses", strconv.FormatUint(c.Misses, 10)},
			[2]string{prefix + "compulsory", strconv.FormatUint(c.Compulsory, 10)},
			[2]string{prefix + "conflict", strconv.FormatUint(c.Conflict, 10)},
			[2]string{prefix + "capacity", strconv.FormatUint(c.Capacity, 10)},
			[2]string{prefix + "writebacks", strconv.FormatUint(c.Writebacks, 10)},
			[2]string{prefix + "victim_cache_hits", strconv.FormatUint(c.VictimCacheHits, 10)},
			[2]string{prefix + "stream_buffer_hits", strconv.FormatUint(c.StreamBufferHits, 10)},
			[2]string{prefix + "prefetches_issued", strconv.FormatUint(c.PrefetchesIssued, 10)},
			[2]string{prefix + "writes_combined", strconv.FormatUint(c.WritesCombined, 10)},
			[2]string{prefix + "hit_rate", strconv.FormatFloat(lvl.HitRate(), 'f', 6, 64)},
		)
	}
	return rows
}

// WriteCSV writes the `metric,value` export spec.md §6 specifies: one
// header row then one row per metric.
func (s Snapshot) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, "metric,value\n"); err != nil {
		return err
	}
	for _, row := range s.metricRows() {
		if _, err := fmt.Fprintf(w, "%s,%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}
