package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
l1:
  size: 1024
  associativity: 2
  block_size: 64
  replacement_policy: LRU
  write_policy: WriteBack
`

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunSucceedsOnValidConfigAndTrace(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\nr 0x0040\nr 0x0000\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, tracePath}, &stdout, &stderr)

	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout.String(), "L1:")
}

func TestRunMissingTraceArgumentIsInvalidArguments(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath}, &stdout, &stderr)

	assert.Equal(t, exitInvalidArguments, code)
}

func TestRunMissingConfigFlagIsInvalidArguments(t *testing.T) {
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{tracePath}, &stdout, &stderr)

	assert.Equal(t, exitInvalidArguments, code)
}

func TestRunUnreadableTraceFileIsIOError(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, filepath.Join(t.TempDir(), "does-not-exist.txt")}, &stdout, &stderr)

	assert.Equal(t, exitIOError, code)
}

func TestRunMalformedConfigIsInvalidArguments(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", "l1:\n  size: 3\n  associativity: 1\n  block_size: 64\n  replacement_policy: LRU\n  write_policy: WriteBack\n")
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, tracePath}, &stdout, &stderr)

	assert.Equal(t, exitInvalidArguments, code)
}

func TestRunParallelModeSucceeds(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\nr 0x0040\nr 0x0080\nr 0x00C0\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, "-p", "2", tracePath}, &stdout, &stderr)

	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout.String(), "L1:")
}

func TestRunExportWithoutValueWritesCSVToStdout(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, "--export=", tracePath}, &stdout, &stderr)

	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout.String(), "metric,value")
}

func TestRunExportWritesCSVToFile(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\n")
	exportPath := filepath.Join(t.TempDir(), "out.csv")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, "-e", exportPath, tracePath}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "metric,value")
}

func TestRunBenchmarkFlagPrintsElapsed(t *testing.T) {
	configPath := writeTempFile(t, "config.yaml", validConfigYAML)
	tracePath := writeTempFile(t, "trace.txt", "r 0x0000\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", configPath, "-b", tracePath}, &stdout, &stderr)

	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout.String(), "elapsed:")
}
