package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		hidden  slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"", slog.LevelWarn, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level, "text", new(bytes.Buffer))
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.hidden))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	buf := new(bytes.Buffer)
	newLogger("info", "json", buf).Info("eval finished", "rows", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "eval finished", rec["msg"])
	assert.InDelta(t, 3.0, rec["rows"], 0)
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "vcol", cmd.Use)
	for _, flag := range []string{"config", "logic", "functions-dir", "state", "env", "output", "log-level", "log-format", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "--%s flag should exist", flag)
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"check", "order", "deps", "eval", "functions", "runs", "init", "version", "completion"} {
		assert.True(t, names[name], "missing subcommand %s", name)
	}
}
