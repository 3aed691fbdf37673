package common

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureLogs swaps the default logger for one writing into a buffer and
// restores it when the test ends.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestLogError(t *testing.T) {
	buf := captureLogs(t)

	LogError(errors.New("row gone"), "Import record failed", Fields{
		"batch_id": "batch-1",
		"record":   3,
	})

	out := buf.String()
	assert.Contains(t, out, "Import record failed")
	assert.Contains(t, out, "row gone")
	assert.Contains(t, out, "batch_id=batch-1")
	assert.Contains(t, out, "record=3")
	assert.Contains(t, out, "level=ERROR")
}

func TestLogInfo(t *testing.T) {
	buf := captureLogs(t)

	LogInfo("Committed import batch", Fields{"imported": 5})

	out := buf.String()
	assert.Contains(t, out, "Committed import batch")
	assert.Contains(t, out, "imported=5")
	assert.Contains(t, out, "level=INFO")
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	for _, format := range []string{"json", "console", "unknown"} {
		assert.NoError(t, SetupLogger(slog.LevelInfo, format))
	}
}
