package metrics

import (
	"testing"
	"time"

	"StockLens/internal/ingest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ ingest.Observer = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.BarsFetched("AAPL", 10)
	r.BarsRejected("AAPL", 2)
	r.BarsUpserted("AAPL", 5, 3)
	r.SymbolFinished("AAPL", true, 150*time.Millisecond)
	r.SymbolFinished("MSFT", false, time.Second)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.barsFetched.WithLabelValues("AAPL")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.barsRejected.WithLabelValues("AAPL")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.barsUpserted.WithLabelValues("AAPL", "created")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.barsUpserted.WithLabelValues("AAPL", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.symbolRuns.WithLabelValues("MSFT", "failed")))
	assert.Greater(t, testutil.ToFloat64(r.lastSuccess.WithLabelValues("AAPL")), 0.0)
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
