package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("token", "42", "")
	n.BaseURL = url
	n.Backoff = time.Millisecond
	n.Retries = 2
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		assert.Equal(t, "hello", payload["text"])
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "hello"))
}

func TestTelegramNotifier_Retries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send(context.Background(), "hello")
	assert.ErrorContains(t, err, "all 3 attempts exhausted")
	assert.ErrorContains(t, err, "status 401")
}

func TestFormatIngestReport(t *testing.T) {
	start := time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC)
	report := &ingest.Report{
		RunID:      "run-1",
		Period:     collector.Period1Y,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Results: []ingest.SymbolResult{
			{Symbol: "AAPL", Status: ingest.StatusSuccess, Created: 3, Updated: 249, Rejected: 1},
			{Symbol: "MSFT", Status: ingest.StatusFailed, Error: "upstream fetch failed: <timeout>"},
		},
		Succeeded: 1,
		Failed:    1,
	}

	msg := FormatIngestReport(report)

	assert.Contains(t, msg, "Succeeded: 1 | Failed: 1")
	assert.Contains(t, msg, "Bars created: 3 | updated: 249 | rejected: 1")
	assert.Contains(t, msg, "MSFT: upstream fetch failed: &lt;timeout&gt;")
	assert.Contains(t, msg, "Elapsed: 2s")
	assert.Contains(t, msg, "<code>run-1</code>")
}
