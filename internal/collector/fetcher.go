package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Period is the look-back range requested from an upstream source.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// periodDays approximates each period in trading days.
var periodDays = map[Period]int{
	Period1Mo: 21,
	Period3Mo: 63,
	Period6Mo: 126,
	Period1Y:  252,
	Period2Y:  504,
	Period5Y:  1260,
	PeriodMax: 2520,
}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// TradingDays returns the approximate number of bars the period spans.
func (p Period) TradingDays() int {
	return periodDays[p]
}

// RawBar is one unvalidated daily bar as reported upstream.
// Nil price fields were missing in the upstream payload.
type RawBar struct {
	Date   time.Time `validate:"required"`
	Open   *float64  `validate:"required,gte=0"`
	High   *float64  `validate:"required,gte=0"`
	Low    *float64  `validate:"required,gte=0"`
	Close  *float64  `validate:"required,gte=0"`
	Volume *float64  `validate:"omitempty,gte=0"`
}

// Fetcher defines the interface for fetching market data.
// Bars are returned oldest first.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, period Period) ([]RawBar, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func floatPtr(v float64) *float64 { return &v }
