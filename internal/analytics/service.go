package analytics

import (
	"context"
	"fmt"
	"strings"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
	"StockLens/internal/store"

	"github.com/shopspring/decimal"
)

const (
	DefaultCompareWindow  = 30
	DefaultInsightsWindow = 60
	DefaultBarsLimit      = 30
)

var (
	maxWeek52High = store.AggregateField{Func: store.AggMax, Column: store.ColWeek52High}
	minWeek52Low  = store.AggregateField{Func: store.AggMin, Column: store.ColWeek52Low}
	avgClose      = store.AggregateField{Func: store.AggAvg, Column: store.ColClose}
)

// Service answers read-only questions over stored bars.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Symbols lists every tracked symbol.
func (s *Service) Symbols(ctx context.Context) ([]model.Symbol, error) {
	return s.store.ListSymbols(ctx)
}

// Remove deletes ticker and all of its bars.
func (s *Service) Remove(ctx context.Context, ticker string) error {
	ticker, err := requireTicker(ticker)
	if err != nil {
		return err
	}
	return s.store.DeleteSymbol(ctx, ticker)
}

// Bars returns the most recent limit bars of ticker, newest first.
func (s *Service) Bars(ctx context.Context, ticker string, limit int) ([]model.Bar, error) {
	ticker, err := requireTicker(ticker)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrBadRequest)
	}
	if limit == 0 {
		limit = DefaultBarsLimit
	}
	return s.store.GetRange(ctx, ticker, store.RangeQuery{Limit: limit})
}

// Summary reports the latest close and all-history statistics of ticker.
func (s *Service) Summary(ctx context.Context, ticker string) (*model.Summary, error) {
	ticker, err := requireTicker(ticker)
	if err != nil {
		return nil, err
	}
	sym, err := s.store.GetSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}
	latest, ok, err := s.store.GetLatest(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNoData, ticker)
	}

	agg, err := s.store.Aggregate(ctx, ticker, store.AggregateQuery{
		Fields: []store.AggregateField{maxWeek52High, minWeek52Low, avgClose},
	})
	if err != nil {
		return nil, err
	}

	return &model.Summary{
		Symbol:       sym.Ticker,
		Name:         sym.Name,
		CurrentPrice: latest.Close,
		Week52High:   agg[maxWeek52High],
		Week52Low:    agg[minWeek52Low],
		AverageClose: round(agg[avgClose], 2),
		LastUpdated:  latest.Date,
	}, nil
}

// Compare contrasts the trailing window of two symbols. Ties favor a.
func (s *Service) Compare(ctx context.Context, a, b string, window int) (*model.Comparison, error) {
	a, errA := requireTicker(a)
	b, errB := requireTicker(b)
	if errA != nil || errB != nil {
		return nil, fmt.Errorf("%w: both symbols are required", model.ErrBadRequest)
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: window must not be negative", model.ErrBadRequest)
	}
	if window == 0 {
		window = DefaultCompareWindow
	}

	first, retA, volA, err := s.performance(ctx, a, window)
	if err != nil {
		return nil, err
	}
	second, retB, volB, err := s.performance(ctx, b, window)
	if err != nil {
		return nil, err
	}

	cmp := &model.Comparison{
		Window:           window,
		First:            first,
		Second:           second,
		HigherReturn:     a,
		LowerVolatility:  a,
		ReturnDifference: retA.Sub(retB).Abs().Mul(hundred).Round(2),
	}
	if retB.GreaterThan(retA) {
		cmp.HigherReturn = b
	}
	if volB.LessThan(volA) {
		cmp.LowerVolatility = b
	}
	return cmp, nil
}

// performance returns the display values of one side plus the unrounded
// average return and volatility used for the verdict.
func (s *Service) performance(ctx context.Context, ticker string, window int) (model.Performance, decimal.Decimal, decimal.Decimal, error) {
	sym, err := s.store.GetSymbol(ctx, ticker)
	if err != nil {
		return model.Performance{}, decimal.Zero, decimal.Zero, err
	}
	bars, err := s.store.GetRange(ctx, ticker, store.RangeQuery{Limit: window})
	if err != nil {
		return model.Performance{}, decimal.Zero, decimal.Zero, err
	}

	returns := make([]decimal.NullDecimal, len(bars))
	vols := make([]decimal.NullDecimal, len(bars))
	for i, b := range bars {
		returns[i] = b.Derived.DailyReturn
		vols[i] = b.Derived.VolatilityScore
	}
	avgRet := mean(returns)
	avgVol := mean(vols)

	p := model.Performance{
		Symbol:          sym,
		AvgDailyReturn:  avgRet.Mul(hundred).Round(2),
		VolatilityScore: avgVol.Round(2),
		Bars:            len(bars),
	}
	if len(bars) > 0 {
		p.CurrentPrice = decimal.NewNullDecimal(bars[0].Close)
	}
	return p, avgRet, avgVol, nil
}

// Insights applies the labelling rules to the trailing window of ticker.
func (s *Service) Insights(ctx context.Context, ticker string, window int) (*model.Insights, error) {
	ticker, err := requireTicker(ticker)
	if err != nil {
		return nil, err
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: window must not be negative", model.ErrBadRequest)
	}
	if window == 0 {
		window = DefaultInsightsWindow
	}

	sym, err := s.store.GetSymbol(ctx, ticker)
	if err != nil {
		return nil, err
	}
	bars, err := s.store.GetRange(ctx, ticker, store.RangeQuery{Limit: window})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNoData, ticker)
	}
	latest := bars[0]

	var positive, negative int
	vols := make([]decimal.NullDecimal, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		if r := b.Derived.DailyReturn; r.Valid {
			switch r.Decimal.Sign() {
			case 1:
				positive++
			case -1:
				negative++
			}
		}
		vols[i] = b.Derived.VolatilityScore
		closes[len(bars)-1-i] = b.Close.InexactFloat64()
	}
	avgVol := mean(vols)
	level := classifyVolatility(avgVol)
	ret := latest.Derived.DailyReturn

	rsi, err := calculator.CalculateRSI(closes, calculator.RSIPeriod)
	if err != nil {
		return nil, err
	}

	return &model.Insights{
		Symbol:       sym.Ticker,
		Name:         sym.Name,
		Window:       window,
		Bars:         len(bars),
		AsOf:         latest.Date,
		CurrentPrice: latest.Close,
		Labels: model.InsightLabels{
			Trend:             classifyTrend(ret),
			VolatilityLevel:   level,
			PositiveDays:      positive,
			NegativeDays:      negative,
			PositiveDaysRatio: fmt.Sprintf("%d/%d", positive, len(bars)),
			PerformanceRating: ratePerformance(ret),
			MomentumStrength:  classifyMomentum(latest.Derived.Momentum),
			Recommendation:    recommend(level, ret),
		},
		KeyMetrics: model.KeyMetrics{
			DailyChangePercent:     valueOrZero(ret).Mul(hundred).Round(2),
			VolumeToday:            latest.Volume,
			DistanceFrom52WeekHigh: distanceFromHigh(latest),
			MovingAvgTrend:         classifyMATrend(latest.Close, latest.Derived.MovingAvg7),
			AvgVolatility:          avgVol.Round(2),
			RSI14:                  decimal.NewFromFloat(rsi).Round(2).InexactFloat64(),
		},
	}, nil
}

func distanceFromHigh(b model.Bar) decimal.NullDecimal {
	if !b.Derived.Week52High.Valid {
		return decimal.NullDecimal{}
	}
	d, err := calculator.CalculateDistanceFromHigh(b.Close.InexactFloat64(), b.Derived.Week52High.Decimal.InexactFloat64())
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(d).Round(2))
}

func round(d decimal.NullDecimal, places int32) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(places))
}

func requireTicker(t string) (string, error) {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return "", fmt.Errorf("%w: symbol is required", model.ErrBadRequest)
	}
	return t, nil
}
