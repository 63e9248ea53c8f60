package analytics

import (
	"StockLens/internal/model"

	"github.com/shopspring/decimal"
)

var (
	highVolatility = decimal.NewFromInt(2)
	lowVolatility  = decimal.NewFromInt(1)
	goodReturn     = decimal.RequireFromString("0.01")
	poorReturn     = decimal.RequireFromString("-0.01")
	strongMomentum = decimal.NewFromInt(5)
	hundred        = decimal.NewFromInt(100)
)

// classifyTrend labels the latest daily return. Zero and missing returns
// are Bearish.
func classifyTrend(ret decimal.NullDecimal) model.Trend {
	if ret.Valid && ret.Decimal.IsPositive() {
		return model.TrendBullish
	}
	return model.TrendBearish
}

// classifyVolatility labels the mean volatility score of the window.
// High: > 2, Low: < 1, otherwise Medium.
func classifyVolatility(avg decimal.Decimal) model.VolatilityLevel {
	switch {
	case avg.GreaterThan(highVolatility):
		return model.VolatilityHigh
	case avg.LessThan(lowVolatility):
		return model.VolatilityLow
	default:
		return model.VolatilityMedium
	}
}

// ratePerformance labels the latest daily return (a fraction).
// Good: > 1%, Neutral: > -1%, otherwise Poor. Missing counts as zero.
func ratePerformance(ret decimal.NullDecimal) model.PerformanceRating {
	r := valueOrZero(ret)
	switch {
	case r.GreaterThan(goodReturn):
		return model.RatingGood
	case r.GreaterThan(poorReturn):
		return model.RatingNeutral
	default:
		return model.RatingPoor
	}
}

func classifyMomentum(m decimal.NullDecimal) model.MomentumStrength {
	if valueOrZero(m).Abs().GreaterThan(strongMomentum) {
		return model.MomentumStrong
	}
	return model.MomentumWeak
}

// recommend: Watch on high volatility, Consider on a rising day, else Hold.
func recommend(level model.VolatilityLevel, ret decimal.NullDecimal) model.Recommendation {
	switch {
	case level == model.VolatilityHigh:
		return model.RecommendWatch
	case ret.Valid && ret.Decimal.IsPositive():
		return model.RecommendConsider
	default:
		return model.RecommendHold
	}
}

func classifyMATrend(close decimal.Decimal, ma decimal.NullDecimal) model.MATrend {
	switch {
	case !ma.Valid:
		return model.MAMissing
	case close.GreaterThan(ma.Decimal):
		return model.AboveMA
	default:
		return model.BelowMA
	}
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// mean averages the valid values. An empty input averages to zero.
func mean(values []decimal.NullDecimal) decimal.Decimal {
	sum := decimal.Zero
	n := int64(0)
	for _, v := range values {
		if v.Valid {
			sum = sum.Add(v.Decimal)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n))
}
