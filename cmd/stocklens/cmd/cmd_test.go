package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"StockLens/internal/analytics"
	"StockLens/internal/ingest"
	"StockLens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`log:
  level: error
  format: json
data_source:
  provider: synthetic
  period: 3mo
  seed: 7
store:
  driver: sqlite
  sqlite_path: %s
universe:
  - symbol: AAPL
    name: Apple Inc.
  - symbol: MSFT
    name: Microsoft Corporation
`, filepath.Join(dir, "data", "test.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	barsLimit = analytics.DefaultBarsLimit
	compareWindow = analytics.DefaultCompareWindow
	insightsWindow = analytics.DefaultInsightsWindow
	ingestPeriod = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("x: %w", model.ErrSymbolNotFound), exitNotFound},
		{model.ErrNoData, exitNotFound},
		{model.ErrBadRequest, exitBadRequest},
		{model.ErrValidation, exitBadRequest},
		{model.ErrPersistence, exitInternal},
		{errors.New("boom"), exitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, fmt.Errorf("summary: %w", model.ErrSymbolNotFound))

	var payload model.ErrorPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, model.KindNotFound, payload.Error.Kind)
	assert.Equal(t, "SYMBOL_NOT_FOUND", payload.Error.Code)
}

func TestSeedAndQuery(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "seed")
	require.NoError(t, err)
	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)

	out, err = execute(t, "--config", cfgPath, "symbols")
	require.NoError(t, err)
	var symbols []model.Symbol
	require.NoError(t, json.Unmarshal([]byte(out), &symbols))
	require.Len(t, symbols, 2)

	out, err = execute(t, "--config", cfgPath, "bars", "aapl", "--limit", "5")
	require.NoError(t, err)
	var bars []model.Bar
	require.NoError(t, json.Unmarshal([]byte(out), &bars))
	require.Len(t, bars, 5)
	assert.True(t, bars[0].Date.After(bars[4].Date))

	out, err = execute(t, "--config", cfgPath, "summary", "AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, `"symbol": "AAPL"`)

	out, err = execute(t, "--config", cfgPath, "compare", "AAPL", "MSFT", "--window", "10")
	require.NoError(t, err)
	assert.Contains(t, out, `"window": 10`)

	out, err = execute(t, "--config", cfgPath, "insights", "MSFT")
	require.NoError(t, err)
	assert.Contains(t, out, `"recommendation"`)

	_, err = execute(t, "--config", cfgPath, "remove", "AAPL")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "summary", "AAPL")
	assert.Equal(t, exitNotFound, ExitCode(err))
}

func TestIngestReingestIsIdempotent(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "ingest", "MSFT")
	require.NoError(t, err)
	out, err := execute(t, "--config", cfgPath, "ingest", "MSFT")
	require.NoError(t, err)

	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 1)
	assert.Zero(t, report.Results[0].Created)
	assert.Positive(t, report.Results[0].Updated)
}

func TestBadRequests(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing symbol", []string{"bars"}},
		{"bad flag value", []string{"bars", "AAPL", "--limit", "many"}},
		{"negative limit", []string{"bars", "AAPL", "--limit", "-1"}},
		{"bad period", []string{"ingest", "--period", "7y"}},
		{"compare arity", []string{"compare", "AAPL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, exitBadRequest, ExitCode(err))
		})
	}
}
