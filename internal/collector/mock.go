package collector

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]RawBar
	Errs  map[string]error
	Delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, _ Period) ([]RawBar, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mock fetch %s: %w", symbol, ctx.Err())
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars := m.Bars[symbol]
	out := make([]RawBar, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// NewRawBar builds a complete raw bar.
func NewRawBar(date time.Time, open, high, low, close, volume float64) RawBar {
	return RawBar{
		Date:   date,
		Open:   floatPtr(open),
		High:   floatPtr(high),
		Low:    floatPtr(low),
		Close:  floatPtr(close),
		Volume: floatPtr(volume),
	}
}
