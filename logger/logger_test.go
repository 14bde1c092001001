package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"disabled": zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(Config{Env: "production", Level: "warn"}, &buf)

	l.Info().Msg("hidden")
	l.Warn().Str("book", "B1").Msg("low stock")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"book":"B1"`)
	assert.Contains(t, out, `"message":"low stock"`)
	assert.Contains(t, out, `"time":`)
}

func TestNewWriterDevelopmentConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(Config{Env: "development", Level: "debug"}, &buf)

	l.Debug().Msg("console line")

	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewSetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(Config{Level: "info"}, &buf)

	log.Info().Msg("through the global logger")
	assert.Contains(t, buf.String(), "through the global logger")
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.log")

	l, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)
	l.Info().Msg("first")
	require.NoError(t, l.Close())

	// A second logger appends.
	l, err = New(Config{Level: "info", File: path})
	require.NoError(t, err)
	l.Info().Msg("second")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestNewStderr(t *testing.T) {
	l, err := New(Config{File: "-"})
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestNewBadFile(t *testing.T) {
	_, err := New(Config{File: filepath.Join(t.TempDir(), "missing", "dir", "shop.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log file")
}
