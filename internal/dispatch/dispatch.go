// Package dispatch implements the parallel trace dispatcher of
// spec.md §5: partition an address stream into contiguous chunks, run
// one independent hierarchy per chunk on a bounded worker pool, and
// merge per-chunk statistics by summing counters.
package dispatch

import (
	"context"
	"runtime"
	"slices"

	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/cachesim/cachesim/internal/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Builder constructs a fresh, independently-seeded hierarchy for one
// chunk. Each call must return a hierarchy with its own Random-policy
// seed so chunks never share RNG state (spec.md §5, §9 "Randomness").
type Builder func(chunkIndex int) (*hierarchy.Hierarchy, error)

// ChunkResult is one chunk's outcome: its aggregate and per-level
// counters, or the error that chunk failed with.
type ChunkResult struct {
	Index         int
	Counters      hierarchy.Counters
	LevelCounters map[string]cachelevel.Counters
	Err           error
}

// Result is the dispatcher's overall outcome: the merged totals plus
// every individual chunk's result, sorted by chunk index.
type Result struct {
	Merged hierarchy.Counters
	Levels map[string]cachelevel.Counters
	Chunks []ChunkResult
}

// Options configures the dispatcher's concurrency.
type Options struct {
	// Workers caps in-flight chunks. Zero means runtime.NumCPU().
	Workers int
}

// Run partitions records into Workers-many contiguous chunks (or fewer
// if there are fewer records than workers), runs each chunk through its
// own hierarchy built by build, and merges the results. It returns the
// first chunk error encountered, after letting every other chunk run to
// completion, matching spec.md §5's "collect all errors... surface a
// single aggregated failure."
func Run(ctx context.Context, records []trace.Record, build Builder, opts Options) (Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(records) {
		workers = len(records)
	}
	if workers < 1 {
		workers = 1
	}

	chunks := partition(records, workers)

	var g errgroup.Group
	sem := semaphore.NewWeighted(int64(workers))
	results := make([]ChunkResult, len(chunks))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = ChunkResult{Index: i, Err: err}
				return err
			}
			defer sem.Release(1)

			h, err := build(i)
			if err != nil {
				results[i] = ChunkResult{Index: i, Err: err}
				return err
			}
			for _, rec := range chunk {
				if _, err := h.Access(rec.Address, rec.Op.IsWrite()); err != nil {
					results[i] = ChunkResult{Index: i, Err: err}
					return err
				}
			}
			if err := h.Flush(); err != nil {
				results[i] = ChunkResult{Index: i, Err: err}
				return err
			}
			results[i] = ChunkResult{Index: i, Counters: h.Counters(), LevelCounters: h.LevelCounters()}
			return nil
		})
	}

	runErr := g.Wait()

	slices.SortFunc(results, func(a, b ChunkResult) int { return a.Index - b.Index })

	merged := hierarchy.Counters{}
	levelTotals := make(map[string]cachelevel.Counters)
	for _, r := range results {
		merged.Accesses += r.Counters.Accesses
		merged.Reads += r.Counters.Reads
		merged.Writes += r.Counters.Writes
		merged.L1Misses += r.Counters.L1Misses
		for name, c := range r.LevelCounters {
			existing := levelTotals[name]
			levelTotals[name] = addCounters(existing, c)
		}
	}

	return Result{Merged: merged, Levels: levelTotals, Chunks: results}, runErr
}

func addCounters(a, b cachelevel.Counters) cachelevel.Counters {
	return cachelevel.Counters{
		Reads:            a.Reads + b.Reads,
		Writes:           a.Writes + b.Writes,
		Hits:             a.Hits + b.Hits,
		Misses:           a.Misses + b.Misses,
		Compulsory:       a.Compulsory + b.Compulsory,
		Conflict:         a.Conflict + b.Conflict,
		Capacity:         a.Capacity + b.Capacity,
		Writebacks:       a.Writebacks + b.Writebacks,
		VictimCacheHits:  a.VictimCacheHits + b.VictimCacheHits,
		StreamBufferHits: a.StreamBufferHits + b.StreamBufferHits,
		PrefetchesIssued: a.PrefetchesIssued + b.PrefetchesIssued,
		WritesCombined:   a.WritesCombined + b.WritesCombined,
	}
}

// partition splits records into n contiguous, roughly-equal chunks.
func partition(records []trace.Record, n int) [][]trace.Record {
	if n <= 0 {
		n = 1
	}
	chunks := make([][]trace.Record, 0, n)
	total := len(records)
	base := total / n
	remainder := total % n

	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < remainder {
			size++
		}
		end := start + size
		chunks = append(chunks, records[start:end])
		start = end
	}
	return chunks
}
