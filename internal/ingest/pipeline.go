package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Observer receives ingestion counters. Implementations must be safe for
// concurrent use.
type Observer interface {
	BarsFetched(symbol string, n int)
	BarsRejected(symbol string, n int)
	BarsUpserted(symbol string, created, updated int)
	SymbolFinished(symbol string, ok bool, elapsed time.Duration)
}

// NopObserver discards all counters.
type NopObserver struct{}

func (NopObserver) BarsFetched(string, int)                    {}
func (NopObserver) BarsRejected(string, int)                   {}
func (NopObserver) BarsUpserted(string, int, int)              {}
func (NopObserver) SymbolFinished(string, bool, time.Duration) {}

// Options tune a Pipeline.
type Options struct {
	Period       collector.Period
	Concurrency  int
	FetchTimeout time.Duration
	Engine       calculator.Options
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLocker replaces the default in-process KeyedMutex.
func WithLocker(l Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline fetches, validates, derives and stores daily bars.
type Pipeline struct {
	fetcher  collector.Fetcher
	store    store.Store
	universe map[string]model.Symbol
	tickers  []string
	locker   Locker
	observer Observer
	opts     Options
}

// New builds a Pipeline over the given universe of tracked symbols.
func New(fetcher collector.Fetcher, st store.Store, universe []model.Symbol, opts Options, options ...Option) *Pipeline {
	if opts.Period == "" {
		opts.Period = collector.Period1Y
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Engine.Week52Policy == "" {
		opts.Engine = calculator.DefaultOptions()
	}

	p := &Pipeline{
		fetcher:  fetcher,
		store:    st,
		universe: make(map[string]model.Symbol, len(universe)),
		locker:   NewKeyedMutex(),
		observer: NopObserver{},
		opts:     opts,
	}
	for _, sym := range universe {
		t := normalizeTicker(sym.Ticker)
		if t == "" {
			continue
		}
		if _, dup := p.universe[t]; !dup {
			p.tickers = append(p.tickers, t)
		}
		sym.Ticker = t
		p.universe[t] = sym
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tickers returns the configured universe in configuration order.
func (p *Pipeline) Tickers() []string {
	out := make([]string, len(p.tickers))
	copy(out, p.tickers)
	return out
}

// IngestAll ingests every symbol of the universe.
func (p *Pipeline) IngestAll(ctx context.Context, period collector.Period) *Report {
	return p.IngestSymbols(ctx, p.tickers, period)
}

// IngestSymbols ingests tickers in parallel. A failing symbol never stops
// the others; the report carries one result per ticker in input order.
func (p *Pipeline) IngestSymbols(ctx context.Context, tickers []string, period collector.Period) *Report {
	if period == "" {
		period = p.opts.Period
	}
	report := &Report{
		RunID:     uuid.NewString(),
		Period:    period,
		StartedAt: time.Now(),
		Results:   make([]SymbolResult, len(tickers)),
	}
	logger := log.With().Str("run_id", report.RunID).Logger()
	logger.Info().
		Int("symbols", len(tickers)).
		Str("period", string(period)).
		Str("source", p.fetcher.Name()).
		Msg("Ingestion run started")

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			report.Results[i] = p.IngestSymbol(ctx, ticker, period)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	for _, res := range report.Results {
		if res.Status == StatusSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	created, updated, rejected := report.Totals()
	logger.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("created", created).
		Int("updated", updated).
		Int("rejected", rejected).
		Dur("elapsed", report.Elapsed()).
		Msg("Ingestion run finished")
	return report
}

// IngestSymbol runs the full pipeline for one ticker.
func (p *Pipeline) IngestSymbol(ctx context.Context, ticker string, period collector.Period) SymbolResult {
	start := time.Now()
	ticker = normalizeTicker(ticker)
	res := SymbolResult{Symbol: ticker, Status: StatusSuccess}

	if err := p.ingest(ctx, ticker, period, &res); err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		log.Error().Err(err).Str("symbol", ticker).Msg("Symbol ingestion failed")
	} else {
		log.Info().
			Str("symbol", ticker).
			Int("fetched", res.Fetched).
			Int("rejected", res.Rejected).
			Int("created", res.Created).
			Int("updated", res.Updated).
			Msg("Symbol ingested")
	}
	res.Duration = time.Since(start)
	p.observer.SymbolFinished(ticker, res.Status == StatusSuccess, res.Duration)
	return res
}

func (p *Pipeline) ingest(ctx context.Context, ticker string, period collector.Period, res *SymbolResult) error {
	if ticker == "" {
		return fmt.Errorf("%w: empty symbol", model.ErrBadRequest)
	}
	if period == "" {
		period = p.opts.Period
	}

	unlock, err := p.locker.Lock(ctx, ticker)
	if err != nil {
		return err
	}
	defer unlock()

	sym, ok := p.universe[ticker]
	if !ok {
		sym = model.Symbol{Ticker: ticker, Name: ticker}
	}
	if err := p.store.EnsureSymbol(ctx, sym); err != nil {
		return err
	}

	raw, err := p.fetch(ctx, ticker, period)
	if err != nil {
		return err
	}
	res.Fetched = len(raw)
	p.observer.BarsFetched(ticker, len(raw))

	bars, rejected := collector.Normalize(ticker, raw)
	res.Rejected = len(rejected)
	if len(rejected) > 0 {
		p.observer.BarsRejected(ticker, len(rejected))
		for _, r := range rejected {
			log.Warn().
				Str("symbol", ticker).
				Int("index", r.Index).
				Time("date", r.Bar.Date).
				Err(r.Err).
				Msg("Bar rejected")
		}
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: %s: no valid bars among %d fetched", model.ErrValidation, ticker, len(raw))
	}

	history, err := p.store.GetRange(ctx, ticker, store.RangeQuery{Order: store.OrderAsc})
	if err != nil {
		return err
	}
	merged, existing := merge(history, bars)
	derived := calculator.Derive(merged, p.opts.Engine)

	earliest := bars[0].Date
	first := sort.Search(len(derived), func(i int) bool { return !derived[i].Date.Before(earliest) })
	toWrite := derived[first:]

	if _, err := p.store.UpsertBatch(ctx, toWrite); err != nil {
		return err
	}
	for _, b := range toWrite {
		if _, ok := existing[b.Date.Unix()]; ok {
			res.Updated++
		} else {
			res.Created++
		}
	}
	p.observer.BarsUpserted(ticker, res.Created, res.Updated)
	return nil
}

func (p *Pipeline) fetch(ctx context.Context, ticker string, period collector.Period) ([]collector.RawBar, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	raw, err := p.fetcher.FetchDailyBars(fetchCtx, ticker, period)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", model.ErrUpstreamFetch, p.fetcher.Name(), ticker, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: %s: no bars returned", model.ErrUpstreamFetch, p.fetcher.Name(), ticker)
	}
	return raw, nil
}

// merge overlays fresh bars on stored history by date and returns the
// ascending result plus the set of dates that were already stored.
func merge(history, fresh []model.Bar) ([]model.Bar, map[int64]struct{}) {
	byDate := make(map[int64]model.Bar, len(history)+len(fresh))
	existing := make(map[int64]struct{}, len(history))
	for _, b := range history {
		byDate[b.Date.Unix()] = b
		existing[b.Date.Unix()] = struct{}{}
	}
	for _, b := range fresh {
		byDate[b.Date.Unix()] = b
	}

	merged := make([]model.Bar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged, existing
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
