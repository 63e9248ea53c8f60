package collector

import (
	"errors"
	"testing"
	"time"

	"StockLens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan2 = time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)

func TestNormalize_RoundsAndOrders(t *testing.T) {
	raw := []RawBar{
		NewRawBar(jan2.AddDate(0, 0, 1), 10.004, 11.129, 9.991, 10.555, 1200),
		NewRawBar(jan2, 10, 11, 9, 10.5, 1000),
	}

	bars, rejected := Normalize("AAPL", raw)

	require.Empty(t, rejected)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, "AAPL", bars[1].Ticker)
	assert.Equal(t, "10.00", bars[1].Open.StringFixed(2))
	assert.Equal(t, "11.13", bars[1].High.StringFixed(2))
	assert.Equal(t, "10.56", bars[1].Close.StringFixed(2))
	assert.Equal(t, int64(1200), bars[1].Volume)
}

func TestNormalize_SkipsMissingOpenOrClose(t *testing.T) {
	missingClose := NewRawBar(jan2, 10, 11, 9, 10, 100)
	missingClose.Close = nil
	missingOpen := NewRawBar(jan2.AddDate(0, 0, 1), 10, 11, 9, 10, 100)
	missingOpen.Open = nil
	good := NewRawBar(jan2.AddDate(0, 0, 2), 10, 11, 9, 10, 100)

	bars, rejected := Normalize("AAPL", []RawBar{missingClose, missingOpen, good})

	require.Len(t, bars, 1)
	require.Len(t, rejected, 2)
	for _, r := range rejected {
		assert.True(t, errors.Is(r.Err, model.ErrValidation))
		assert.True(t, errors.Is(r.Err, ErrMissingPrice))
	}
}

func TestNormalize_RejectsOHLCViolations(t *testing.T) {
	tests := []struct {
		name string
		bar  RawBar
	}{
		{"high below close", NewRawBar(jan2, 10, 10.5, 9, 11, 100)},
		{"high below open", NewRawBar(jan2, 12, 11, 9, 10, 100)},
		{"low above open", NewRawBar(jan2, 10, 12, 10.5, 11, 100)},
		{"negative volume", NewRawBar(jan2, 10, 12, 9, 11, -5)},
		{"negative price", NewRawBar(jan2, 10, 12, -1, 11, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, rejected := Normalize("AAPL", []RawBar{tt.bar})
			assert.Empty(t, bars)
			require.Len(t, rejected, 1)
			assert.True(t, errors.Is(rejected[0].Err, model.ErrValidation))
		})
	}
}

func TestNormalize_MissingVolumeIsZero(t *testing.T) {
	rb := NewRawBar(jan2, 10, 11, 9, 10, 0)
	rb.Volume = nil

	bars, rejected := Normalize("AAPL", []RawBar{rb})

	require.Empty(t, rejected)
	require.Len(t, bars, 1)
	assert.Zero(t, bars[0].Volume)
}

func TestNormalize_DuplicateDateKeepsLast(t *testing.T) {
	first := NewRawBar(jan2, 10, 11, 9, 10, 100)
	second := NewRawBar(jan2.Add(time.Hour), 20, 21, 19, 20, 200)

	bars, _ := Normalize("AAPL", []RawBar{first, second})

	require.Len(t, bars, 1)
	assert.Equal(t, "20", bars[0].Close.String())
}
