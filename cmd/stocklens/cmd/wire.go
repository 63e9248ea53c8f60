package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/ingest"
	"StockLens/internal/logger"
	"StockLens/internal/store"

	"github.com/rs/zerolog/log"
)

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	if c.Store.Driver == string(store.DriverSQLite) {
		if dir := filepath.Dir(c.Store.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}
	ql := logger.NewQueryLogger(c.Log)
	return store.Open(ctx, store.Options{
		Driver:        store.Driver(c.Store.Driver),
		SQLitePath:    c.Store.SQLitePath,
		PostgresURL:   c.Store.PostgresURL,
		MaxConns:      c.Store.MaxConns,
		QueryLogLevel: c.Log.Level,
		QueryLogger:   &ql,
	})
}

func buildFetcher(c *config.Config) (collector.Fetcher, error) {
	ds := c.DataSource
	switch ds.Provider {
	case "yahoo", "":
		return collector.NewYahooFetcher(c.Proxy, ds.FetchTimeout), nil
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, c.Proxy, ds.FetchTimeout), nil
	case "synthetic":
		return collector.NewSyntheticFetcher(ds.Seed, time.Now()), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
}

// pipelineDeps are the resources a Pipeline holds open.
type pipelineDeps struct {
	pipeline *ingest.Pipeline
	period   collector.Period
	closers  []func() error
}

func (d *pipelineDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
}

func buildPipeline(ctx context.Context, c *config.Config, st store.Store, fetcher collector.Fetcher, observer ingest.Observer) (*pipelineDeps, error) {
	period, err := collector.ParsePeriod(c.DataSource.Period)
	if err != nil {
		return nil, err
	}
	policy, err := calculator.ParseWeek52Policy(c.Ingest.Week52Policy)
	if err != nil {
		return nil, err
	}

	deps := &pipelineDeps{period: period}
	options := []ingest.Option{}
	if observer != nil {
		options = append(options, ingest.WithObserver(observer))
	}
	if c.Lock.RedisAddr != "" {
		locker, err := ingest.NewRedisLocker(ctx, c.Lock.RedisAddr, c.Lock.RedisPassword, c.Lock.RedisDB, c.Lock.TTL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.closers = append(deps.closers, locker.Close)
		options = append(options, ingest.WithLocker(locker))
	}

	deps.pipeline = ingest.New(fetcher, st, c.Universe, ingest.Options{
		Period:       period,
		Concurrency:  c.Ingest.Concurrency,
		FetchTimeout: c.DataSource.FetchTimeout,
		Engine:       calculator.Options{Week52Policy: policy},
	}, options...)
	log.Info().
		Str("provider", fetcher.Name()).
		Str("period", string(period)).
		Int("symbols", len(deps.pipeline.Tickers())).
		Msg("Pipeline ready")
	return deps, nil
}
