package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("json output respects the level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "warn", Format: "json", Output: zapcore.AddSync(&buf)})

		log.Info("dropped")
		log.Warn("kept", zap.String("agent", "Planner"))
		require.NoError(t, log.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "Planner", entry["agent"])
		assert.NotContains(t, buf.String(), "dropped")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "loud", Format: "console", Output: zapcore.AddSync(&buf)})

		log.Debug("hidden")
		log.Info("shown")
		require.NoError(t, log.Sync())

		assert.Contains(t, buf.String(), "shown")
		assert.NotContains(t, buf.String(), "hidden")
	})
}
