package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Format: "json"}, &buf))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Msg("hidden")
	log.Info().Str("symbol", "AAPL").Msg("Symbol ingested")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"symbol":"AAPL"`)
	assert.Contains(t, out, `"service":"stocklens"`)
}

func TestInit_InvalidLevel(t *testing.T) {
	assert.Error(t, Init(Config{Level: "loud"}, &bytes.Buffer{}))
}

func TestInit_ErrorLogOnlyKeepsErrors(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Init(Config{
		Level: "info", Format: "json",
		FileEnabled: true, FilePath: dir, RotationSize: 1, RetentionDays: 1,
	}, &buf))
	t.Cleanup(func() { log.Logger = zerolog.New(os.Stderr) })

	log.Info().Msg("routine")
	log.Error().Msg("broken")

	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)

	assert.Contains(t, string(app), "routine")
	assert.Contains(t, string(app), "broken")
	assert.False(t, strings.Contains(string(errs), "routine"))
	assert.Contains(t, string(errs), "broken")
}
