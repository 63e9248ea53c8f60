package analytics

import (
	"testing"

	"StockLens/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyVolatility(t *testing.T) {
	tests := []struct {
		avg  string
		want model.VolatilityLevel
	}{
		{"2.01", model.VolatilityHigh},
		{"2", model.VolatilityMedium},
		{"1", model.VolatilityMedium},
		{"0.99", model.VolatilityLow},
		{"0", model.VolatilityLow},
	}
	for _, tt := range tests {
		t.Run(tt.avg, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyVolatility(d(tt.avg)))
		})
	}
}

func TestRatePerformance(t *testing.T) {
	tests := []struct {
		name string
		ret  decimal.NullDecimal
		want model.PerformanceRating
	}{
		{"strong gain", nd("0.0150"), model.RatingGood},
		{"exactly one percent", nd("0.0100"), model.RatingNeutral},
		{"flat", nd("0"), model.RatingNeutral},
		{"exactly minus one percent", nd("-0.0100"), model.RatingPoor},
		{"missing", decimal.NullDecimal{}, model.RatingNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ratePerformance(tt.ret))
		})
	}
}

func TestClassifyTrendAndRecommend(t *testing.T) {
	assert.Equal(t, model.TrendBullish, classifyTrend(nd("0.0001")))
	assert.Equal(t, model.TrendBearish, classifyTrend(nd("0")))
	assert.Equal(t, model.TrendBearish, classifyTrend(decimal.NullDecimal{}))

	assert.Equal(t, model.RecommendWatch, recommend(model.VolatilityHigh, nd("0.02")))
	assert.Equal(t, model.RecommendConsider, recommend(model.VolatilityMedium, nd("0.02")))
	assert.Equal(t, model.RecommendHold, recommend(model.VolatilityLow, nd("-0.02")))
}

func TestClassifyMomentumAndMA(t *testing.T) {
	assert.Equal(t, model.MomentumStrong, classifyMomentum(nd("-5.01")))
	assert.Equal(t, model.MomentumWeak, classifyMomentum(nd("5")))
	assert.Equal(t, model.MomentumWeak, classifyMomentum(decimal.NullDecimal{}))

	assert.Equal(t, model.AboveMA, classifyMATrend(d("10.01"), nd("10")))
	assert.Equal(t, model.BelowMA, classifyMATrend(d("10"), nd("10")))
	assert.Equal(t, model.MAMissing, classifyMATrend(d("10"), decimal.NullDecimal{}))
}

func TestMean(t *testing.T) {
	assert.True(t, mean(nil).IsZero())
	assert.True(t, mean([]decimal.NullDecimal{{}, {}}).IsZero())
	assert.Equal(t, "2", mean([]decimal.NullDecimal{nd("1"), {}, nd("3")}).String())
}
