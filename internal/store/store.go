package store

import (
	"context"
	"fmt"
	"time"

	"StockLens/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store persists symbols and their daily bars keyed by (symbol, date).
type Store interface {
	EnsureSymbol(ctx context.Context, sym model.Symbol) error
	GetSymbol(ctx context.Context, ticker string) (model.Symbol, error)
	ListSymbols(ctx context.Context) ([]model.Symbol, error)
	DeleteSymbol(ctx context.Context, ticker string) error

	Upsert(ctx context.Context, bar model.Bar) (model.BarID, error)
	UpsertBatch(ctx context.Context, bars []model.Bar) (int, error)

	GetRange(ctx context.Context, ticker string, q RangeQuery) ([]model.Bar, error)
	GetLatest(ctx context.Context, ticker string) (model.Bar, bool, error)
	Aggregate(ctx context.Context, ticker string, q AggregateQuery) (map[AggregateField]decimal.NullDecimal, error)

	Close() error
}

// Order is the date ordering of a range read.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// RangeQuery selects bars of one symbol. The zero value returns every bar,
// newest first. Limit applies after ordering; zero or negative is unlimited.
// From and To are inclusive and ignored when zero.
type RangeQuery struct {
	Order Order
	Limit int
	From  time.Time
	To    time.Time
}

func (q RangeQuery) ascending() bool { return q.Order == OrderAsc }

func (q RangeQuery) inRange(d time.Time) bool {
	if !q.From.IsZero() && d.Before(model.TruncateDate(q.From)) {
		return false
	}
	if !q.To.IsZero() && d.After(model.TruncateDate(q.To)) {
		return false
	}
	return true
}

// AggregateFunc is a SQL aggregate supported by Aggregate.
type AggregateFunc string

const (
	AggMax AggregateFunc = "max"
	AggMin AggregateFunc = "min"
	AggAvg AggregateFunc = "avg"
)

// Column names a numeric bar column.
type Column string

const (
	ColOpen            Column = "open"
	ColHigh            Column = "high"
	ColLow             Column = "low"
	ColClose           Column = "close"
	ColVolume          Column = "volume"
	ColDailyReturn     Column = "daily_return"
	ColMovingAvg7      Column = "moving_avg_7"
	ColWeek52High      Column = "week_52_high"
	ColWeek52Low       Column = "week_52_low"
	ColVolatilityScore Column = "volatility_score"
	ColMomentum        Column = "momentum"
)

// columnValue is the whitelist of aggregatable columns.
var columnValue = map[Column]func(model.Bar) decimal.NullDecimal{
	ColOpen:            func(b model.Bar) decimal.NullDecimal { return decimal.NewNullDecimal(b.Open) },
	ColHigh:            func(b model.Bar) decimal.NullDecimal { return decimal.NewNullDecimal(b.High) },
	ColLow:             func(b model.Bar) decimal.NullDecimal { return decimal.NewNullDecimal(b.Low) },
	ColClose:           func(b model.Bar) decimal.NullDecimal { return decimal.NewNullDecimal(b.Close) },
	ColVolume:          func(b model.Bar) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(b.Volume)) },
	ColDailyReturn:     func(b model.Bar) decimal.NullDecimal { return b.Derived.DailyReturn },
	ColMovingAvg7:      func(b model.Bar) decimal.NullDecimal { return b.Derived.MovingAvg7 },
	ColWeek52High:      func(b model.Bar) decimal.NullDecimal { return b.Derived.Week52High },
	ColWeek52Low:       func(b model.Bar) decimal.NullDecimal { return b.Derived.Week52Low },
	ColVolatilityScore: func(b model.Bar) decimal.NullDecimal { return b.Derived.VolatilityScore },
	ColMomentum:        func(b model.Bar) decimal.NullDecimal { return b.Derived.Momentum },
}

// AggregateField is one (function, column) pair of an aggregate read.
type AggregateField struct {
	Func   AggregateFunc
	Column Column
}

func (f AggregateField) String() string {
	return string(f.Func) + "(" + string(f.Column) + ")"
}

func (f AggregateField) validate() error {
	switch f.Func {
	case AggMax, AggMin, AggAvg:
	default:
		return fmt.Errorf("%w: unsupported aggregate %q", model.ErrBadRequest, f.Func)
	}
	if _, ok := columnValue[f.Column]; !ok {
		return fmt.Errorf("%w: unsupported column %q", model.ErrBadRequest, f.Column)
	}
	return nil
}

// AggregateQuery computes Fields over all stored bars of a symbol, or over
// the inclusive From/To range when set.
type AggregateQuery struct {
	Fields []AggregateField
	From   time.Time
	To     time.Time
}

func (q AggregateQuery) validate() error {
	if len(q.Fields) == 0 {
		return fmt.Errorf("%w: no aggregate fields", model.ErrBadRequest)
	}
	for _, f := range q.Fields {
		if err := f.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (q AggregateQuery) inRange(d time.Time) bool {
	return RangeQuery{From: q.From, To: q.To}.inRange(d)
}

// selectList renders the validated fields as a SQL select list.
func (q AggregateQuery) selectList() string {
	s := ""
	for i, f := range q.Fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s(%s)", f.Func, f.Column)
	}
	return s
}

// Driver selects a Store implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Options configures Open.
type Options struct {
	Driver        Driver
	SQLitePath    string
	PostgresURL   string
	MaxConns      int32
	QueryLogLevel string
	// QueryLogger receives pgx trace events; nil uses the global logger.
	QueryLogger *zerolog.Logger
}

// Open builds the Store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteStore(opts.SQLitePath)
	case DriverPostgres:
		return NewPostgresStore(ctx, opts)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrPersistence, op, err)
}

func symbolNotFound(ticker string) error {
	return fmt.Errorf("%w: %s", model.ErrSymbolNotFound, ticker)
}
