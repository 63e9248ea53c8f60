package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the stored-history statistics of one symbol.
type Summary struct {
	Symbol       string              `json:"symbol"`
	Name         string              `json:"name"`
	CurrentPrice decimal.Decimal     `json:"current_price"`
	Week52High   decimal.NullDecimal `json:"week_52_high"`
	Week52Low    decimal.NullDecimal `json:"week_52_low"`
	AverageClose decimal.NullDecimal `json:"average_close"`
	LastUpdated  time.Time           `json:"last_updated"`
}

// Performance is one side of a comparison.
type Performance struct {
	Symbol Symbol `json:"company"`
	// AvgDailyReturn is a percentage rounded to 2dp.
	AvgDailyReturn  decimal.Decimal     `json:"avg_daily_return"`
	VolatilityScore decimal.Decimal     `json:"volatility_score"`
	CurrentPrice    decimal.NullDecimal `json:"current_price"`
	Bars            int                 `json:"bars"`
}

// Comparison is the verdict of comparing two symbols over a trailing window.
type Comparison struct {
	Window          int         `json:"window"`
	First           Performance `json:"symbol1"`
	Second          Performance `json:"symbol2"`
	HigherReturn    string      `json:"higher_return"`
	LowerVolatility string      `json:"lower_volatility"`
	// ReturnDifference is |avgA - avgB| as a percentage rounded to 2dp.
	ReturnDifference decimal.Decimal `json:"return_difference"`
}

// Trend labels
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
)

// VolatilityLevel labels
type VolatilityLevel string

const (
	VolatilityHigh   VolatilityLevel = "High"
	VolatilityMedium VolatilityLevel = "Medium"
	VolatilityLow    VolatilityLevel = "Low"
)

// PerformanceRating labels
type PerformanceRating string

const (
	RatingGood    PerformanceRating = "Good"
	RatingNeutral PerformanceRating = "Neutral"
	RatingPoor    PerformanceRating = "Poor"
)

// MomentumStrength labels
type MomentumStrength string

const (
	MomentumStrong MomentumStrength = "Strong"
	MomentumWeak   MomentumStrength = "Weak"
)

// Recommendation labels
type Recommendation string

const (
	RecommendWatch    Recommendation = "Watch"
	RecommendConsider Recommendation = "Consider"
	RecommendHold     Recommendation = "Hold"
)

// MATrend labels
type MATrend string

const (
	AboveMA   MATrend = "Above MA"
	BelowMA   MATrend = "Below MA"
	MAMissing MATrend = "N/A"
)

// InsightLabels are the rule-based classifications of the latest bar.
type InsightLabels struct {
	Trend             Trend             `json:"trend"`
	VolatilityLevel   VolatilityLevel   `json:"volatility_level"`
	PositiveDays      int               `json:"positive_days"`
	NegativeDays      int               `json:"negative_days"`
	PositiveDaysRatio string            `json:"positive_days_ratio"`
	PerformanceRating PerformanceRating `json:"performance_rating"`
	MomentumStrength  MomentumStrength  `json:"momentum_strength"`
	Recommendation    Recommendation    `json:"recommendation"`
}

// KeyMetrics are the headline numbers of the latest bar.
type KeyMetrics struct {
	DailyChangePercent     decimal.Decimal     `json:"daily_change_percent"`
	VolumeToday            int64               `json:"volume_today"`
	DistanceFrom52WeekHigh decimal.NullDecimal `json:"distance_from_52_week_high"`
	MovingAvgTrend         MATrend             `json:"moving_avg_trend"`
	AvgVolatility          decimal.Decimal     `json:"avg_volatility"`
	RSI14                  float64             `json:"rsi_14"`
}

// Insights is the rule-based analysis of a symbol's recent bars.
type Insights struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Window       int             `json:"window"`
	Bars         int             `json:"bars"`
	AsOf         time.Time       `json:"as_of"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Labels       InsightLabels   `json:"insights"`
	KeyMetrics   KeyMetrics      `json:"key_metrics"`
}
