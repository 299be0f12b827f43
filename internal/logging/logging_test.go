package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStripsTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("tokenized", "count", 3)

	out := buf.String()
	assert.Contains(t, out, "msg=tokenized")
	assert.Contains(t, out, "count=3")
	assert.False(t, strings.Contains(out, "time="), "time attribute must be dropped: %s", out)
	assert.False(t, strings.Contains(out, "level="), "level attribute must be dropped: %s", out)
}

func TestInfoLevelHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	assert.Same(t, l, OrDefault(l))

	t.Setenv(EnvDebug, "")
	assert.NotNil(t, OrDefault(nil))
}
