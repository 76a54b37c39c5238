package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return FromZerolog(zerolog.New(&buf)), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestZeroLoggerFields(t *testing.T) {
	log, buf := captureLogger()

	log.Info().
		Str("method", "GET").
		Int("status", 200).
		Int64("call_count", 7).
		Dur("elapsed", 150*time.Millisecond).
		Msg("HTTP client response")

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(7), entry["call_count"])
	assert.Equal(t, "HTTP client response", entry["message"])
}

func TestZeroLoggerErr(t *testing.T) {
	log, buf := captureLogger()

	log.Error().Err(errors.New("boom")).Msg("request failed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestZeroLoggerWithFields(t *testing.T) {
	log, buf := captureLogger()

	log.WithFields(map[string]any{"transport": "nethttp"}).Info().Msg("ready")

	entry := decodeLine(t, buf)
	assert.Equal(t, "nethttp", entry["transport"])
}

func TestNewLevelParsing(t *testing.T) {
	assert.NotNil(t, New("debug", false))
	assert.NotNil(t, New("not-a-level", true), "unknown levels fall back to info")
}

func TestNopLogger(t *testing.T) {
	log := NewNop()

	// must be safe to chain without output or panics
	log.Info().Str("k", "v").Int("n", 1).Err(errors.New("x")).Msg("ignored")
	log.WithFields(map[string]any{"k": "v"}).Debug().Msgf("ignored %d", 1)
	log.Warn().Dur("d", time.Second).Interface("i", nil).Bytes("b", nil).Msg("ignored")
}
