package logging

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelError, io.Discard)

	Debug("executor", "hidden %d", 1)
	Info("orchestrator", "discovered %d tests", 3)
	Error("storage", errors.New("disk full"), "write failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "discovered 3 tests")
	assert.Contains(t, out, "subsystem=orchestrator")
	assert.Contains(t, out, `error="disk full"`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
