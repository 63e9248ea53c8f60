package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Recorder exports ingestion counters to Prometheus. It satisfies
// ingest.Observer.
type Recorder struct {
	barsFetched  *prometheus.CounterVec
	barsRejected *prometheus.CounterVec
	barsUpserted *prometheus.CounterVec
	symbolRuns   *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
	duration     *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		barsFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_bars_fetched_total",
				Help: "Raw bars returned by the data source",
			},
			[]string{"symbol"},
		),
		barsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_bars_rejected_total",
				Help: "Raw bars dropped by validation",
			},
			[]string{"symbol"},
		),
		barsUpserted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_bars_upserted_total",
				Help: "Bars written to the store",
			},
			[]string{"symbol", "kind"},
		),
		symbolRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_symbol_ingestions_total",
				Help: "Per-symbol ingestion attempts by outcome",
			},
			[]string{"symbol", "status"},
		),
		lastSuccess: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocklens_last_success_timestamp_seconds",
				Help: "Unix time of the last successful ingestion of a symbol",
			},
			[]string{"symbol"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocklens_symbol_ingestion_duration_seconds",
				Help:    "Duration of one symbol's ingestion in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
}

func (r *Recorder) BarsFetched(symbol string, n int) {
	r.barsFetched.WithLabelValues(symbol).Add(float64(n))
}

func (r *Recorder) BarsRejected(symbol string, n int) {
	r.barsRejected.WithLabelValues(symbol).Add(float64(n))
}

func (r *Recorder) BarsUpserted(symbol string, created, updated int) {
	r.barsUpserted.WithLabelValues(symbol, "created").Add(float64(created))
	r.barsUpserted.WithLabelValues(symbol, "updated").Add(float64(updated))
}

func (r *Recorder) SymbolFinished(symbol string, ok bool, elapsed time.Duration) {
	status := "failed"
	if ok {
		status = "success"
		r.lastSuccess.WithLabelValues(symbol).SetToCurrentTime()
	}
	r.symbolRuns.WithLabelValues(symbol, status).Inc()
	r.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
