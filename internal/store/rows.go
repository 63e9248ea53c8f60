package store

import (
	"fmt"

	"StockLens/internal/model"
)

// barColumns is the select list shared by both SQL stores. trade_date is
// read back as YYYY-MM-DD text.
const barColumns = `ticker, trade_date, open, high, low, close, volume,
	daily_return, moving_avg_7, week_52_high, week_52_low, volatility_score, momentum`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBar(row rowScanner) (model.Bar, error) {
	var (
		b    model.Bar
		date string
	)
	err := row.Scan(
		&b.Ticker,
		&date,
		&b.Open,
		&b.High,
		&b.Low,
		&b.Close,
		&b.Volume,
		&b.Derived.DailyReturn,
		&b.Derived.MovingAvg7,
		&b.Derived.Week52High,
		&b.Derived.Week52Low,
		&b.Derived.VolatilityScore,
		&b.Derived.Momentum,
	)
	if err != nil {
		return model.Bar{}, err
	}
	if len(date) > len(model.DateLayout) {
		date = date[:len(model.DateLayout)]
	}
	b.Date, err = model.ParseDate(date)
	if err != nil {
		return model.Bar{}, fmt.Errorf("parse trade_date %q: %w", date, err)
	}
	return b, nil
}

// barArgs returns the insert arguments in barColumns order.
func barArgs(b model.Bar) []any {
	return []any{
		b.Ticker,
		b.Date.Format(model.DateLayout),
		b.Open,
		b.High,
		b.Low,
		b.Close,
		b.Volume,
		b.Derived.DailyReturn,
		b.Derived.MovingAvg7,
		b.Derived.Week52High,
		b.Derived.Week52Low,
		b.Derived.VolatilityScore,
		b.Derived.Momentum,
	}
}

// reverse flips bars in place.
func reverse(bars []model.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
