package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"StockLens/internal/model"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process memory. Used by tests and the
// memory driver; contents are lost on Close.
type MemoryStore struct {
	mu      sync.RWMutex
	symbols map[string]model.Symbol
	bars    map[string]map[int64]model.Bar
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		symbols: make(map[string]model.Symbol),
		bars:    make(map[string]map[int64]model.Bar),
	}
}

func (m *MemoryStore) EnsureSymbol(_ context.Context, sym model.Symbol) error {
	if sym.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", model.ErrBadRequest)
	}
	if sym.Name == "" {
		sym.Name = sym.Ticker
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[sym.Ticker] = sym
	if m.bars[sym.Ticker] == nil {
		m.bars[sym.Ticker] = make(map[int64]model.Bar)
	}
	return nil
}

func (m *MemoryStore) GetSymbol(_ context.Context, ticker string) (model.Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sym, ok := m.symbols[ticker]
	if !ok {
		return model.Symbol{}, symbolNotFound(ticker)
	}
	return sym, nil
}

func (m *MemoryStore) ListSymbols(_ context.Context) ([]model.Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	syms := make([]model.Symbol, 0, len(m.symbols))
	for _, s := range m.symbols {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Ticker < syms[j].Ticker })
	return syms, nil
}

func (m *MemoryStore) DeleteSymbol(_ context.Context, ticker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.symbols[ticker]; !ok {
		return symbolNotFound(ticker)
	}
	delete(m.symbols, ticker)
	delete(m.bars, ticker)
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, bar model.Bar) (model.BarID, error) {
	if _, err := m.UpsertBatch(ctx, []model.Bar{bar}); err != nil {
		return model.BarID{}, err
	}
	return bar.ID(), nil
}

func (m *MemoryStore) UpsertBatch(_ context.Context, bars []model.Bar) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range bars {
		if _, ok := m.symbols[b.Ticker]; !ok {
			return 0, symbolNotFound(b.Ticker)
		}
	}
	for _, b := range bars {
		b.Date = model.TruncateDate(b.Date)
		m.bars[b.Ticker][b.Date.Unix()] = b
	}
	return len(bars), nil
}

func (m *MemoryStore) GetRange(_ context.Context, ticker string, q RangeQuery) ([]model.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.symbols[ticker]; !ok {
		return nil, symbolNotFound(ticker)
	}

	bars := []model.Bar{}
	for _, b := range m.bars[ticker] {
		if q.inRange(b.Date) {
			bars = append(bars, b)
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	if q.Limit > 0 && len(bars) > q.Limit {
		bars = bars[:q.Limit]
	}
	if q.ascending() {
		reverse(bars)
	}
	return bars, nil
}

func (m *MemoryStore) GetLatest(ctx context.Context, ticker string) (model.Bar, bool, error) {
	bars, err := m.GetRange(ctx, ticker, RangeQuery{Limit: 1})
	if err != nil {
		return model.Bar{}, false, err
	}
	if len(bars) == 0 {
		return model.Bar{}, false, nil
	}
	return bars[0], true, nil
}

func (m *MemoryStore) Aggregate(_ context.Context, ticker string, q AggregateQuery) (map[AggregateField]decimal.NullDecimal, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.symbols[ticker]; !ok {
		return nil, symbolNotFound(ticker)
	}

	out := make(map[AggregateField]decimal.NullDecimal, len(q.Fields))
	for _, f := range q.Fields {
		value := columnValue[f.Column]
		var (
			acc   decimal.Decimal
			count int64
		)
		for _, b := range m.bars[ticker] {
			if !q.inRange(b.Date) {
				continue
			}
			v := value(b)
			if !v.Valid {
				continue
			}
			switch {
			case count == 0:
				acc = v.Decimal
			case f.Func == AggMax && v.Decimal.GreaterThan(acc):
				acc = v.Decimal
			case f.Func == AggMin && v.Decimal.LessThan(acc):
				acc = v.Decimal
			case f.Func == AggAvg:
				acc = acc.Add(v.Decimal)
			}
			count++
		}
		switch {
		case count == 0:
			out[f] = decimal.NullDecimal{}
		case f.Func == AggAvg:
			out[f] = decimal.NewNullDecimal(acc.Div(decimal.NewFromInt(count)))
		default:
			out[f] = decimal.NewNullDecimal(acc)
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
