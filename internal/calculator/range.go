package calculator

import (
	"errors"
	"math"
)

// TradingDaysPerYear is the length of the 52-week window in bars.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 bars and returns the high and low.
// Fewer bars are scanned when less history exists.
func Calculate52WeekRange(highs, lows []float64) (high, low float64, err error) {
	if len(highs) == 0 || len(highs) != len(lows) {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(highs)
	start := n - TradingDaysPerYear
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if highs[i] > high {
			high = highs[i]
		}
		if lows[i] < low {
			low = lows[i]
		}
	}
	return high, low, nil
}

// CalculateDistanceFromHigh returns how far current sits below high, as a percentage of high.
func CalculateDistanceFromHigh(current, high float64) (float64, error) {
	if high == 0 {
		return 0, errors.New("high must be non-zero")
	}
	return (high - current) / high * 100, nil
}
