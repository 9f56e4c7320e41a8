package obslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	logger.Debug().Msg("should be dropped")
	logger.Info().Msg("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestNewAttachesComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Component: "dispatch"})

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"dispatch"`)
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: "error"})

	logger.Warn().Msg("should be dropped")
	logger.Error().Msg("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestDiscardProducesNoOutput(t *testing.T) {
	logger := Discard()
	logger.Info().Msg("nowhere")
}

func TestPrettyWriterProducesHumanReadableOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Pretty: true})
	logger.Info().Msg("hello")
	assert.True(t, strings.Contains(buf.String(), "hello"))
}
