package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logDebug  bool
		logInfo   bool
		wantLevel zerolog.Level
	}{
		{"info", "info", false, true, zerolog.InfoLevel},
		{"debug", "debug", true, true, zerolog.DebugLevel},
		{"upper case", "WARN", false, false, zerolog.WarnLevel},
		{"unknown falls back to info", "loud", false, true, zerolog.InfoLevel},
		{"empty falls back to info", "", false, true, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: tt.level, Format: FormatJSON, Output: &buf})

			assert.Equal(t, tt.wantLevel, l.GetLevel())

			l.Debug().Msg("debug line")
			assert.Equal(t, tt.logDebug, strings.Contains(buf.String(), "debug line"))

			l.Info().Msg("info line")
			assert.Equal(t, tt.logInfo, strings.Contains(buf.String(), "info line"))
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := WithRunID(New(Config{Level: "info", Format: FormatJSON, Output: &buf}), "01HZZZZZZZZZZZZZZZZZZZZZZZ")

	l.Warn().Int("circles", 3).Msg("override target missing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "override target missing", entry["message"])
	assert.Equal(t, float64(3), entry["circles"])
	assert.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ", entry["run_id"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "CONSOLE", Output: &buf})

	l.Info().Str("file", "creator-data.json").Msg("snapshot written")

	out := buf.String()
	assert.Contains(t, out, "snapshot written")
	assert.Contains(t, out, "creator-data.json")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	assert.NotEqual(t, a, b)
	_, err := ulid.Parse(a)
	assert.NoError(t, err)
}
