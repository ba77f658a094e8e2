package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLogger_CapturesThroughDerivedLoggers(t *testing.T) {
	root := NewTestLogger()
	derived := root.WithField("job_id", "abc").WithFields(map[string]interface{}{"worker": 1})

	derived.Info(context.Background(), "claimed job", map[string]interface{}{"attempt": 2})
	root.Warn(context.Background(), "queue empty", nil)

	entries := root.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "claimed job", entries[0].Message)
	assert.Equal(t, "abc", entries[0].Fields["job_id"])
	assert.Equal(t, 1, entries[0].Fields["worker"])
	assert.Equal(t, 2, entries[0].Fields["attempt"])

	assert.True(t, root.HasMessage("queue empty"))
	assert.False(t, root.HasMessage("missing"))

	root.Reset()
	assert.Empty(t, root.Entries())
}

func TestLogrusLogger_JSONOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLoggerTo(&buf, "warn")

	log.Info(context.Background(), "below threshold", nil)
	log.WithField("node", "n1").Warn(context.Background(), "stuck", map[string]interface{}{"run": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stuck", entry["msg"])
	assert.Equal(t, "n1", entry["node"])
	assert.Equal(t, float64(3), entry["run"])
}

func TestLogrusLogger_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLoggerTo(&buf, "chatty")

	log.Debug(context.Background(), "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Info(context.Background(), "visible", nil)
	assert.NotZero(t, buf.Len())
}

func TestNop(t *testing.T) {
	log := Nop().WithField("k", "v").WithFields(map[string]interface{}{"a": 1})
	log.Debug(context.Background(), "ignored", nil)
	log.Error(context.Background(), "ignored", nil)
}
