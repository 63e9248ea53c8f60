package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooFixture = `{
  "chart": {
    "result": [{
      "meta": {"gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {"quote": [{
        "open":   [187.15, null, 184.22],
        "high":   [188.44, null, 185.88],
        "low":    [183.89, null, 183.43],
        "close":  [185.64, null, 184.25],
        "volume": [82488700, null, 58414500]
      }]}
    }],
    "error": null
  }
}`

func TestParseYahooChart(t *testing.T) {
	bars, err := parseYahooChart([]byte(yahooFixture))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 2024, bars[0].Date.Year())
	assert.Equal(t, time.January, bars[0].Date.Month())
	assert.Equal(t, 2, bars[0].Date.Day())
	require.NotNil(t, bars[0].Close)
	assert.Equal(t, 185.64, *bars[0].Close)
	assert.Equal(t, 82488700.0, *bars[0].Volume)
	assert.Equal(t, 4, bars[1].Date.Day())
}

func TestParseYahooChart_Errors(t *testing.T) {
	_, err := parseYahooChart([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	assert.ErrorContains(t, err, "delisted")

	_, err = parseYahooChart([]byte(`{"chart":{"result":[{"timestamp":[]}]}}`))
	assert.Error(t, err)

	_, err = parseYahooChart([]byte(`not json`))
	assert.Error(t, err)
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/%5EGSPC", r.URL.EscapedPath())
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		w.Write([]byte(yahooFixture))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL

	bars, err := f.FetchDailyBars(context.Background(), "SPX", Period1Y)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestRESTFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			{"date":"2024-01-03","open":370.1,"high":373.2,"low":369.0,"close":370.6,"volume":23000000},
			{"date":"2024-01-02","open":373.8,"high":375.9,"low":366.7,"close":370.8,"volume":25200000}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", 5*time.Second)
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", Period1Mo)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2, bars[0].Date.Day())
}

func TestRESTFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "", 5*time.Second)
	_, err := f.FetchDailyBars(context.Background(), "MSFT", Period1Mo)
	assert.ErrorContains(t, err, "status 502")
}

func TestSyntheticFetcher_Deterministic(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	f := NewSyntheticFetcher(42, end)

	a, err := f.FetchDailyBars(context.Background(), "AAPL", Period3Mo)
	require.NoError(t, err)
	b, err := f.FetchDailyBars(context.Background(), "AAPL", Period3Mo)
	require.NoError(t, err)
	other, err := f.FetchDailyBars(context.Background(), "MSFT", Period3Mo)
	require.NoError(t, err)

	require.Len(t, a, Period3Mo.TradingDays())
	assert.Equal(t, a, b)
	assert.NotEqual(t, *a[0].Close, *other[0].Close)
	assert.Equal(t, end, a[len(a)-1].Date)

	bars, rejected := Normalize("AAPL", a)
	assert.Empty(t, rejected)
	assert.Len(t, bars, len(a))
	for _, bar := range bars {
		wd := bar.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}

func TestMockFetcher_RespectsContext(t *testing.T) {
	m := &MockFetcher{Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.FetchDailyBars(ctx, "AAPL", Period1Y)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, m.Calls("AAPL"))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2y")
	require.NoError(t, err)
	assert.Equal(t, Period2Y, p)

	_, err = ParsePeriod("3y")
	assert.Error(t, err)
}
