package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "1y", cfg.DataSource.Period)
	assert.Equal(t, 30*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/stocklens.db", cfg.Store.SQLitePath)
	assert.Equal(t, 4, cfg.Ingest.Concurrency)
	assert.Equal(t, "truncated", cfg.Ingest.Week52Policy)
	assert.Equal(t, "0 30 22 * * 1-5", cfg.Schedule.IngestCron)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Len(t, cfg.Universe, 10)
	assert.Equal(t, "AAPL", cfg.Universe[0].Ticker)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: https://bars.example.com
  fetch_timeout: 5s
store:
  driver: memory
ingest:
  concurrency: 8
  week52_policy: strict
universe:
  - symbol: msft
    name: Microsoft Corporation
  - symbol: NVDA
    name: NVIDIA Corporation
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, 5*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Ingest.Concurrency)
	assert.Equal(t, "strict", cfg.Ingest.Week52Policy)
	require.Len(t, cfg.Universe, 2)
	assert.Equal(t, "MSFT", cfg.Universe[0].Ticker)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite\n")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/stocklens")
	t.Setenv("INGEST_CONCURRENCY", "2")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("SYMBOLS", "aapl, ZZZZ")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/stocklens", cfg.Store.PostgresURL)
	assert.Equal(t, 2, cfg.Ingest.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.DataSource.FetchTimeout)
	assert.True(t, cfg.Schedule.RunOnStart)
	require.Len(t, cfg.Universe, 2)
	assert.Equal(t, "Apple Inc.", cfg.Universe[0].Name)
	assert.Equal(t, "ZZZZ", cfg.Universe[1].Name)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("INGEST_CONCURRENCY", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"rest without base url", func(c *Config) { c.DataSource.Provider = "rest"; c.DataSource.BaseURL = "" }},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }},
		{"bad period", func(c *Config) { c.DataSource.Period = "10y" }},
		{"bad policy", func(c *Config) { c.Ingest.Week52Policy = "rolling" }},
		{"zero concurrency", func(c *Config) { c.Ingest.Concurrency = 0 }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"duplicate symbol", func(c *Config) { c.Universe = append(c.Universe, c.Universe[0]) }},
		{"empty ticker", func(c *Config) { c.Universe[0].Ticker = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
