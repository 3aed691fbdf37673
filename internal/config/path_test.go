package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("LEDGER_TEST_DIR", "/var/data")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde prefix",
			input:    "~/ledger.db",
			expected: filepath.Join(home, "ledger.db"),
		},
		{
			name:     "bare tilde",
			input:    "~",
			expected: home,
		},
		{
			name:     "environment variable",
			input:    "$LEDGER_TEST_DIR/ledger.db",
			expected: "/var/data/ledger.db",
		},
		{
			name:     "plain path untouched",
			input:    "/tmp/ledger.db",
			expected: "/tmp/ledger.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "ledgerloom.db", filepath.Base(path))

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
