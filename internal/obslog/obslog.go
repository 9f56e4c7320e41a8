// Package obslog wraps zerolog.Logger construction so every command and
// package gets a consistently-configured, explicitly-injected logger
// rather than reaching for a package-level global (spec.md's ambient
// logging concern; no module here keeps its own *zerolog.Logger var).
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Options configures a constructed logger.
type Options struct {
	// Level is the minimum level that will be written, e.g. "debug",
	// "info", "warn", "error". Empty defaults to "info".
	Level string
	// Pretty enables zerolog's human-readable console writer instead of
	// JSON, for interactive terminal use.
	Pretty bool
	// Writer overrides the output sink. Nil defaults to os.Stderr.
	Writer io.Writer
	// Component is attached to every record as a "component" field, so
	// multi-package logs (hierarchy, dispatch, cli) can be filtered.
	Component string
}

// New constructs a zerolog.Logger per opts. Each caller gets its own
// instance — there is no package-level logger here to accidentally
// share configuration across unrelated call sites.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	if opts.Pretty {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if opts.Component != "" {
		logger = logger.With().Str("component", opts.Component).Logger()
	}
	return logger
}

// Discard returns a logger that drops every record, for tests and
// library callers that don't want simulation output on stderr.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
