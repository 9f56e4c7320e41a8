// Package simerrors defines the typed error kinds raised across the
// simulator. Each kind is a distinct Go type so callers can branch on it
// with errors.As instead of matching on string content.
package simerrors

import "fmt"

// ConfigurationError reports an invalid cache or hierarchy configuration,
// detected at load/construction time. It is fatal to the current run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Reason)
}

// NewConfigurationError constructs a ConfigurationError naming the
// offending field and why it was rejected.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// TraceParseError reports a malformed trace record. The parser that
// encounters one skips the record and continues; it carries the source
// line number so the caller can report it.
type TraceParseError struct {
	Line   int
	Reason string
}

func (e *TraceParseError) Error() string {
	return fmt.Sprintf("trace parse error at line %d: %s", e.Line, e.Reason)
}

// IoError wraps a failure reading or writing a trace or config file.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error: %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// SimulationError reports an internal invariant violation. These must
// never occur in correct code; encountering one is a bug, not a
// recoverable condition, so callers should fail fast with the message.
type SimulationError struct {
	Invariant string
	Detail    string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation invariant violated (%s): %s", e.Invariant, e.Detail)
}

// NewSimulationError constructs a SimulationError naming the violated
// invariant.
func NewSimulationError(invariant, detail string) *SimulationError {
	return &SimulationError{Invariant: invariant, Detail: detail}
}
