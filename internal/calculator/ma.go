package calculator

import (
	"errors"

	"StockLens/internal/model"
)

// MovingAvgPeriod is the window of the short moving average.
const MovingAvgPeriod = 7

// ErrInsufficientHistory is returned when a window has fewer bars than it needs.
var ErrInsufficientHistory = errors.New("not enough data for calculation")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientHistory
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMovingAvg7 returns the 7-bar simple moving average of closes ending at the last bar.
func CalculateMovingAvg7(bars []model.Bar) (float64, error) {
	return CalculateSMA(extractCloses(bars), MovingAvgPeriod)
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close.InexactFloat64()
	}
	return closes
}

func extractHighs(bars []model.Bar) []float64 {
	highs := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High.InexactFloat64()
	}
	return highs
}

func extractLows(bars []model.Bar) []float64 {
	lows := make([]float64, len(bars))
	for i, b := range bars {
		lows[i] = b.Low.InexactFloat64()
	}
	return lows
}
