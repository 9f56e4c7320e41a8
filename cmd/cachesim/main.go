// Command cachesim runs a trace of memory accesses through a
// configured cache hierarchy and reports per-level statistics.
//
// Usage:
//
//	cachesim [flags] <trace-file>
//
// Flags:
//
//	-c, --config string     path to the cache configuration document (required)
//	    --victim-cache       force-enable the victim cache even if the config omits it
//	-p, --parallel int       run the trace through N parallel chunks (0 or 1 disables parallelism)
//	    --visualize          print a note that ASCII charts are not rendered
//	    --charts             alias for --visualize
//	-e, --export string      write a metric,value CSV export to the given path (stdout if the value is empty, e.g. --export=)
//	-b, --benchmark          print wall-clock timing alongside the statistics report
//
// Exit codes: 0 success, 1 invalid arguments/config, 2 I/O error, 3
// simulation error, per spec.md §6/§7.
//
// ASCII charting is not implemented: --visualize and --charts only print
// a one-line note after the statistics report.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/config"
	"github.com/cachesim/cachesim/internal/dispatch"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/cachesim/cachesim/internal/obslog"
	"github.com/cachesim/cachesim/internal/simerrors"
	"github.com/cachesim/cachesim/internal/stats"
	"github.com/cachesim/cachesim/internal/trace"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Exit codes per spec.md §6/§7.
const (
	exitSuccess          = 0
	exitInvalidArguments = 1
	exitIOError          = 2
	exitSimulationError  = 3
)

// osExit is a variable so tests can intercept process termination.
var osExit = os.Exit

type cliArgs struct {
	configPath  string
	victimCache bool
	parallel    int
	visualize   bool
	export      string
	exportSet   bool
	benchmark   bool
	traceFile   string
}

func parseArgs(args []string) (cliArgs, error) {
	fs := pflag.NewFlagSet("cachesim", pflag.ContinueOnError)

	var a cliArgs
	fs.StringVarP(&a.configPath, "config", "c", "", "path to the cache configuration document")
	fs.BoolVar(&a.victimCache, "victim-cache", false, "force-enable the victim cache")
	fs.IntVarP(&a.parallel, "parallel", "p", 1, "number of parallel chunks to run the trace through")
	fs.BoolVar(&a.visualize, "visualize", false, "print a note that ASCII charts are not rendered")
	fs.BoolVar(&a.visualize, "charts", false, "alias for --visualize")
	fs.StringVarP(&a.export, "export", "e", "", "write a metric,value CSV export to this path (stdout if the value is empty, e.g. --export=)")
	fs.BoolVarP(&a.benchmark, "benchmark", "b", false, "print wall-clock timing alongside the statistics report")

	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	a.exportSet = fs.Changed("export")

	if fs.NArg() != 1 {
		return cliArgs{}, fmt.Errorf("expected exactly one positional trace file argument, got %d", fs.NArg())
	}
	a.traceFile = fs.Arg(0)
	return a, nil
}

func main() {
	osExit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := obslog.New(obslog.Options{Writer: stderr, Component: "cachesim"})

	a, err := parseArgs(args)
	if err != nil {
		logger.Error().Err(err).Msg("invalid arguments")
		return exitInvalidArguments
	}

	cfg, err := loadConfig(a)
	if err != nil {
		return classifyAndLog(logger, err)
	}

	records, parseErrs, err := loadTrace(a.traceFile)
	if err != nil {
		return classifyAndLog(logger, err)
	}
	if len(parseErrs) > 0 {
		logger.Warn().Int("count", len(parseErrs)).Str("trace", a.traceFile).Msg("skipped malformed trace records")
	}

	start := time.Now()
	levelCounters, err := runSimulation(cfg, records, a)
	if err != nil {
		return classifyAndLog(logger, err)
	}
	elapsed := time.Since(start)

	snap := stats.NewSnapshot(levelCounters)
	fmt.Fprint(stdout, snap.Report())
	if a.benchmark {
		fmt.Fprintf(stdout, "elapsed: %s (%d records)\n", elapsed, len(records))
	}
	if a.visualize {
		fmt.Fprintln(stdout, "(ASCII charting is not implemented; see the report above for the full breakdown)")
	}

	if a.exportSet {
		if err := exportCSV(snap, a.export, stdout); err != nil {
			logger.Error().Err(err).Msg("export failed")
			return exitIOError
		}
	}

	return exitSuccess
}

// classifyAndLog logs err and maps it to the exit code spec.md §7
// assigns its type.
func classifyAndLog(logger zerolog.Logger, err error) int {
	var cfgErr *simerrors.ConfigurationError
	var ioErr *simerrors.IoError
	var simErr *simerrors.SimulationError

	switch {
	case errors.As(err, &cfgErr):
		logger.Error().Err(err).Msg("invalid configuration")
		return exitInvalidArguments
	case errors.As(err, &ioErr):
		logger.Error().Err(err).Msg("io error")
		return exitIOError
	case errors.As(err, &simErr):
		logger.Error().Err(err).Msg("simulation invariant violated")
		return exitSimulationError
	default:
		logger.Error().Err(err).Msg("unexpected error")
		return exitSimulationError
	}
}

func loadConfig(a cliArgs) (*config.Config, error) {
	if a.configPath == "" {
		return nil, simerrors.NewConfigurationError("config", "a --config path is required")
	}
	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, &simerrors.IoError{Path: a.configPath, Err: err}
	}
	cfg, err := config.Load(data)
	if err != nil {
		return nil, err
	}
	if a.victimCache && cfg.VictimCache == nil {
		cfg.VictimCache = &config.VictimCacheConfig{Enabled: true, Size: 4}
	}
	return cfg, nil
}

func loadTrace(path string) ([]trace.Record, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &simerrors.IoError{Path: path, Err: err}
	}

	var parser trace.Parser = trace.SimpleParser{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		parser = trace.StructuredParser{}
	}

	records, parseErrs, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &simerrors.IoError{Path: path, Err: err}
	}
	// Malformed individual records are skipped-and-counted by the parser
	// itself per spec.md §7; only a read failure is fatal here.
	return records, parseErrs, nil
}

// runSimulation drives records through either a single hierarchy or,
// when a.parallel > 1, the parallel dispatcher, returning the merged
// per-level counters.
func runSimulation(cfg *config.Config, records []trace.Record, a cliArgs) (map[string]cachelevel.Counters, error) {
	workers := a.parallel
	if workers <= 1 {
		h, err := buildHierarchy(cfg, 0)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if _, err := h.Access(rec.Address, rec.Op.IsWrite()); err != nil {
				return nil, err
			}
		}
		if err := h.Flush(); err != nil {
			return nil, err
		}
		return h.LevelCounters(), nil
	}

	result, err := dispatch.Run(context.Background(), records, func(chunkIndex int) (*hierarchy.Hierarchy, error) {
		return buildHierarchy(cfg, int64(chunkIndex))
	}, dispatch.Options{Workers: workers})
	if err != nil {
		return nil, err
	}
	return result.Levels, nil
}

// buildHierarchy constructs a fresh L1 (+ optional L2) hierarchy from
// cfg. seedOffset is added to every internal RNG seed so concurrent
// dispatcher chunks never share Random-policy state.
func buildHierarchy(cfg *config.Config, seedOffset int64) (*hierarchy.Hierarchy, error) {
	l1, err := config.BuildLevel("L1", cfg.L1, seedOffset+1)
	if err != nil {
		return nil, err
	}
	if vc := cfg.BuildVictimCache(); vc != nil {
		l1.AttachVictimCache(vc)
	}
	if cb := cfg.BuildCombiningBuffer(); cb != nil {
		l1.AttachCombiningBuffer(cb)
	}

	var opts []hierarchy.Option
	if distance, min, max, ok := config.AdaptiveBounds(cfg.L1); ok {
		// Adaptive dispatch needs both mechanisms attached so it has
		// something to pick between.
		opts = append(opts, hierarchy.WithStridePrediction(), hierarchy.WithAdaptivePrefetch(distance, min, max))
	} else if cfg.L1.Prefetch != nil && cfg.L1.Prefetch.Enabled {
		opts = append(opts, hierarchy.WithStridePrediction())
	}

	if cfg.L2 == nil {
		return hierarchy.New(l1, nil, opts...), nil
	}
	l2, err := config.BuildLevel("L2", *cfg.L2, seedOffset+1000)
	if err != nil {
		return nil, err
	}
	return hierarchy.New(l1, l2, opts...), nil
}

func exportCSV(snap stats.Snapshot, path string, stdout io.Writer) error {
	if path == "" {
		return snap.WriteCSV(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return &simerrors.IoError{Path: path, Err: err}
	}
	defer f.Close()
	return snap.WriteCSV(f)
}
