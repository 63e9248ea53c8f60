package calculator

import (
	"fmt"

	"StockLens/internal/model"

	"github.com/shopspring/decimal"
)

// Week52Policy decides what the 52-week fields hold before a full year of bars exists.
type Week52Policy string

const (
	// Week52Truncated uses every bar available so far, so the fields are never null.
	Week52Truncated Week52Policy = "truncated"
	// Week52Strict leaves the fields null until 252 bars exist.
	Week52Strict Week52Policy = "strict"
)

// ParseWeek52Policy validates a policy name. Empty selects Week52Truncated.
func ParseWeek52Policy(s string) (Week52Policy, error) {
	switch Week52Policy(s) {
	case "", Week52Truncated:
		return Week52Truncated, nil
	case Week52Strict:
		return Week52Strict, nil
	default:
		return "", fmt.Errorf("unknown 52-week policy %q", s)
	}
}

// Options tune Derive.
type Options struct {
	Week52Policy Week52Policy
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{Week52Policy: Week52Truncated}
}

// Derive annotates an ascending-by-date bar sequence with derived metrics.
// The input is not modified; bar i only reads bars 0..i.
func Derive(bars []model.Bar, opts Options) []model.Bar {
	out := make([]model.Bar, len(bars))
	copy(out, bars)
	if len(bars) == 0 {
		return out
	}

	closes := extractCloses(bars)
	highs := extractHighs(bars)
	lows := extractLows(bars)

	returns := make([]float64, len(bars))
	hasReturn := make([]bool, len(bars))
	for i, b := range bars {
		r, err := CalculateReturn(b.Open.InexactFloat64(), b.Close.InexactFloat64())
		if err == nil {
			returns[i], hasReturn[i] = r, true
		}
	}

	for i := range out {
		d := model.DerivedMetrics{}

		if hasReturn[i] {
			d.DailyReturn = rounded(returns[i], 4)
		}

		if ma, err := CalculateSMA(closes[:i+1], MovingAvgPeriod); err == nil {
			d.MovingAvg7 = rounded(ma, 2)
		}

		if opts.Week52Policy != Week52Strict || i+1 >= TradingDaysPerYear {
			if h, l, err := Calculate52WeekRange(highs[:i+1], lows[:i+1]); err == nil {
				d.Week52High = rounded(h, 2)
				d.Week52Low = rounded(l, 2)
			}
		}

		if i+1 >= VolatilityPeriod && allTrue(hasReturn[i+1-VolatilityPeriod:i+1]) {
			if sd, err := CalculateStdDev(returns[:i+1], VolatilityPeriod); err == nil {
				d.VolatilityScore = rounded(sd*100, 4)
			}
		}

		if m, err := CalculateMomentum(closes[:i+1], MomentumPeriod); err == nil {
			d.Momentum = rounded(m, 4)
		}

		out[i].Derived = d
	}
	return out
}

func allTrue(flags []bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}

func rounded(v float64, places int32) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(places))
}
