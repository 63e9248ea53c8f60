package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"StockLens/internal/model"
)

// SyntheticFetcher generates a deterministic random walk per symbol.
// The same (Seed, End, symbol, period) always yields the same bars.
type SyntheticFetcher struct {
	Seed uint64
	End  time.Time
}

// NewSyntheticFetcher creates a generator whose series ends at end.
func NewSyntheticFetcher(seed uint64, end time.Time) *SyntheticFetcher {
	return &SyntheticFetcher{Seed: seed, End: model.TruncateDate(end)}
}

func (f *SyntheticFetcher) Name() string { return "synthetic" }

func (f *SyntheticFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]RawBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := period.TradingDays()
	if n == 0 {
		n = Period1Y.TradingDays()
	}
	dates := tradingDaysEnding(f.End, n)

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewPCG(f.Seed, h.Sum64()))

	price := 100 + rng.Float64()*200
	bars := make([]RawBar, 0, n)
	for _, d := range dates {
		open := price * (1 + rng.NormFloat64()*0.005)
		close := open * (1 + rng.NormFloat64()*0.015)
		high := math.Max(open, close) * (1 + rng.Float64()*0.01)
		low := math.Min(open, close) * (1 - rng.Float64()*0.01)
		volume := float64(1_000_000 + rng.IntN(4_000_000))
		bars = append(bars, NewRawBar(d, open, high, low, close, volume))
		price = close
	}
	return bars, nil
}

// tradingDaysEnding returns n weekdays ending on or before end, oldest first.
func tradingDaysEnding(end time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	d := end
	for i := n - 1; i >= 0; {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates[i] = d
			i--
		}
		d = d.AddDate(0, 0, -1)
	}
	return dates
}
