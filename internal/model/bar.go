package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is a tracked instrument. Ticker is its immutable identity.
type Symbol struct {
	Ticker      string `json:"symbol" yaml:"symbol" validate:"required"`
	Name        string `json:"name" yaml:"name"`
	Sector      string `json:"sector,omitempty" yaml:"sector"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// BarID identifies one stored bar row.
type BarID struct {
	Ticker string
	Date   time.Time
}

func (id BarID) String() string {
	return id.Ticker + "@" + id.Date.Format(DateLayout)
}

// DateLayout is the wire and storage layout of trading dates.
const DateLayout = "2006-01-02"

// Bar is one validated daily OHLCV record plus its derived metrics.
// Prices carry 2 decimal places.
type Bar struct {
	Ticker string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`

	Derived DerivedMetrics `json:"derived"`
}

// ID returns the unique (symbol, date) key of the bar.
func (b Bar) ID() BarID {
	return BarID{Ticker: b.Ticker, Date: b.Date}
}

// SameRaw reports whether two bars carry the same raw OHLCV values.
func (b Bar) SameRaw(o Bar) bool {
	return b.Ticker == o.Ticker && b.Date.Equal(o.Date) &&
		b.Open.Equal(o.Open) && b.High.Equal(o.High) &&
		b.Low.Equal(o.Low) && b.Close.Equal(o.Close) &&
		b.Volume == o.Volume
}

// DerivedMetrics are computed from bar history, never hand-edited.
// A field is invalid (null) until enough history exists.
type DerivedMetrics struct {
	DailyReturn     decimal.NullDecimal `json:"daily_return"`     // 4dp fraction
	MovingAvg7      decimal.NullDecimal `json:"moving_avg_7"`     // 2dp
	Week52High      decimal.NullDecimal `json:"week_52_high"`     // 2dp
	Week52Low       decimal.NullDecimal `json:"week_52_low"`      // 2dp
	VolatilityScore decimal.NullDecimal `json:"volatility_score"` // 4dp
	Momentum        decimal.NullDecimal `json:"momentum"`         // 4dp percent
}

// Equal compares derived values field by field, treating two nulls as equal.
func (d DerivedMetrics) Equal(o DerivedMetrics) bool {
	return nullEqual(d.DailyReturn, o.DailyReturn) &&
		nullEqual(d.MovingAvg7, o.MovingAvg7) &&
		nullEqual(d.Week52High, o.Week52High) &&
		nullEqual(d.Week52Low, o.Week52Low) &&
		nullEqual(d.VolatilityScore, o.VolatilityScore) &&
		nullEqual(d.Momentum, o.Momentum)
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// TruncateDate normalizes t to a UTC calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD trading date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
