package calculator

import (
	"errors"
	"math"
	"testing"

	"StockLens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	_, err := CalculateSMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)

	v, err := CalculateSMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v, 1e-9)
}

func TestCalculateReturn(t *testing.T) {
	_, err := CalculateReturn(0, 10)
	assert.True(t, errors.Is(err, model.ErrDivisionUndefined))

	r, err := CalculateReturn(100, 105)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, r, 1e-12)
}

func TestCalculateStdDev(t *testing.T) {
	// sample stddev of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	v, err := CalculateStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7.0), v, 1e-12)

	_, err = CalculateStdDev([]float64{1}, 2)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestCalculate52WeekRange(t *testing.T) {
	h, l, err := Calculate52WeekRange([]float64{5, 9, 7}, []float64{4, 8, 1})
	require.NoError(t, err)
	assert.Equal(t, 9.0, h)
	assert.Equal(t, 1.0, l)

	_, _, err = Calculate52WeekRange(nil, nil)
	assert.Error(t, err)
}

func TestCalculateDistanceFromHigh(t *testing.T) {
	d, err := CalculateDistanceFromHigh(90, 100)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, d, 1e-9)

	_, err = CalculateDistanceFromHigh(90, 0)
	assert.Error(t, err)
}

func TestCalculateRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	rsi, err := CalculateRSI(rising, RSIPeriod)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	rsi, err = CalculateRSI(rising[:5], RSIPeriod)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)
}
