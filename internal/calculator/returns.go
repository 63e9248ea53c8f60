package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockLens/internal/model"
)

const (
	// VolatilityPeriod is the window of daily returns behind the volatility score.
	VolatilityPeriod = 30
	// MomentumPeriod is the look-back of the momentum metric in bars.
	MomentumPeriod = 20
)

// CalculateReturn returns (close - open) / open for one bar.
func CalculateReturn(open, close float64) (float64, error) {
	if open == 0 {
		return 0, fmt.Errorf("daily return: %w", model.ErrDivisionUndefined)
	}
	return (close - open) / open, nil
}

// CalculateMomentum returns the percentage change of the last close against
// the close period bars earlier.
func CalculateMomentum(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return 0, ErrInsufficientHistory
	}
	past := closes[len(closes)-1-period]
	if past == 0 {
		return 0, fmt.Errorf("momentum: %w", model.ErrDivisionUndefined)
	}
	return (closes[len(closes)-1] - past) / past * 100, nil
}

// CalculateStdDev returns the sample standard deviation (n-1) of the last period values.
func CalculateStdDev(values []float64, period int) (float64, error) {
	if period <= 1 {
		return 0, errors.New("period must be greater than 1")
	}
	if len(values) < period {
		return 0, ErrInsufficientHistory
	}
	window := values[len(values)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	ss := 0.0
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(period-1)), nil
}
