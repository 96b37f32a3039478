package logx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatJSON, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("score", FieldPoints, 70.0, Error(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"score"`)
	assert.Contains(t, out, `"points":70`)
	assert.Contains(t, out, "boom")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatText, slog.LevelDebug)

	log.Debug("recalculated", FieldDesignation, "Master")

	out := buf.String()
	assert.Contains(t, out, "recalculated")
	assert.Contains(t, out, "designation=Master")
	assert.NotContains(t, out, "\x1b[", "non-terminal writers get no colour")
}
