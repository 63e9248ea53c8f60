package collector

import (
	"errors"
	"fmt"
	"sort"

	"StockLens/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(rawBarSanity, RawBar{})
}

// rawBarSanity enforces high >= max(open, close) and low <= min(open, close).
func rawBarSanity(sl validator.StructLevel) {
	b := sl.Current().Interface().(RawBar)
	if b.Open == nil || b.High == nil || b.Low == nil || b.Close == nil {
		return
	}
	o, h, l, c := *b.Open, *b.High, *b.Low, *b.Close
	if h < o || h < c {
		sl.ReportError(b.High, "High", "High", "ohlc_high", "")
	}
	if l > o || l > c {
		sl.ReportError(b.Low, "Low", "Low", "ohlc_low", "")
	}
}

// Rejection records why a raw bar was dropped.
type Rejection struct {
	Index int
	Bar   RawBar
	Err   error
}

// ErrMissingPrice marks a bar without an open or close price.
var ErrMissingPrice = errors.New("missing open or close")

// Normalize validates raw bars and converts them to typed bars rounded to 2dp.
// Invalid bars are skipped and reported; duplicates keep the last occurrence.
// The result is ordered by date ascending.
func Normalize(ticker string, raw []RawBar) ([]model.Bar, []Rejection) {
	var rejected []Rejection
	byDate := make(map[int64]model.Bar, len(raw))

	for i, rb := range raw {
		if rb.Open == nil || rb.Close == nil {
			rejected = append(rejected, Rejection{Index: i, Bar: rb, Err: fmt.Errorf("%w: %w", model.ErrValidation, ErrMissingPrice)})
			continue
		}
		if err := validate.Struct(rb); err != nil {
			rejected = append(rejected, Rejection{Index: i, Bar: rb, Err: fmt.Errorf("%w: %s", model.ErrValidation, describe(err))})
			continue
		}

		var volume int64
		if rb.Volume != nil {
			volume = int64(*rb.Volume)
		}
		bar := model.Bar{
			Ticker: ticker,
			Date:   model.TruncateDate(rb.Date),
			Open:   decimal.NewFromFloat(*rb.Open).Round(2),
			High:   decimal.NewFromFloat(*rb.High).Round(2),
			Low:    decimal.NewFromFloat(*rb.Low).Round(2),
			Close:  decimal.NewFromFloat(*rb.Close).Round(2),
			Volume: volume,
		}
		byDate[bar.Date.Unix()] = bar
	}

	bars := make([]model.Bar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, rejected
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		switch fe.Tag() {
		case "required":
			msg += fmt.Sprintf("%s is required", fe.Field())
		case "gte":
			msg += fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
		case "ohlc_high":
			msg += "high is below open or close"
		case "ohlc_low":
			msg += "low is above open or close"
		default:
			msg += fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		}
	}
	return msg
}
