package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"StockLens/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists symbols and bars to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writers
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so readers never block on the ingest writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("SQLite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			ticker      TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			sector      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS bars (
			ticker           TEXT NOT NULL REFERENCES symbols(ticker) ON DELETE CASCADE,
			trade_date       TEXT NOT NULL,
			open             REAL NOT NULL,
			high             REAL NOT NULL,
			low              REAL NOT NULL,
			close            REAL NOT NULL,
			volume           INTEGER NOT NULL,
			daily_return     REAL,
			moving_avg_7     REAL,
			week_52_high     REAL,
			week_52_low      REAL,
			volatility_score REAL,
			momentum         REAL,
			updated_at       INTEGER NOT NULL,
			UNIQUE (ticker, trade_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_ticker_date ON bars(ticker, trade_date DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) EnsureSymbol(ctx context.Context, sym model.Symbol) error {
	if sym.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", model.ErrBadRequest)
	}
	if sym.Name == "" {
		sym.Name = sym.Ticker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO symbols (ticker, name, sector, description)
		VALUES (?,?,?,?)
		ON CONFLICT(ticker) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			description = excluded.description`,
		sym.Ticker, sym.Name, sym.Sector, sym.Description,
	)
	if err != nil {
		return persistenceErr("ensure symbol "+sym.Ticker, err)
	}
	return nil
}

func (s *SQLiteStore) GetSymbol(ctx context.Context, ticker string) (model.Symbol, error) {
	var sym model.Symbol
	err := s.db.QueryRowContext(ctx,
		`SELECT ticker, name, sector, description FROM symbols WHERE ticker = ?`, ticker,
	).Scan(&sym.Ticker, &sym.Name, &sym.Sector, &sym.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Symbol{}, symbolNotFound(ticker)
	}
	if err != nil {
		return model.Symbol{}, persistenceErr("get symbol "+ticker, err)
	}
	return sym, nil
}

func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]model.Symbol, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, name, sector, description FROM symbols ORDER BY ticker`)
	if err != nil {
		return nil, persistenceErr("list symbols", err)
	}
	defer rows.Close()

	syms := []model.Symbol{}
	for rows.Next() {
		var sym model.Symbol
		if err := rows.Scan(&sym.Ticker, &sym.Name, &sym.Sector, &sym.Description); err != nil {
			return nil, persistenceErr("list symbols", err)
		}
		syms = append(syms, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list symbols", err)
	}
	return syms, nil
}

func (s *SQLiteStore) DeleteSymbol(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM symbols WHERE ticker = ?`, ticker)
	if err != nil {
		return persistenceErr("delete symbol "+ticker, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("delete symbol "+ticker, err)
	}
	if n == 0 {
		return symbolNotFound(ticker)
	}
	log.Info().Str("symbol", ticker).Msg("Symbol removed")
	return nil
}

const sqliteUpsertBar = `INSERT INTO bars (` + barColumns + `, updated_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(ticker, trade_date) DO UPDATE SET
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		volume = excluded.volume,
		daily_return = excluded.daily_return,
		moving_avg_7 = excluded.moving_avg_7,
		week_52_high = excluded.week_52_high,
		week_52_low = excluded.week_52_low,
		volatility_score = excluded.volatility_score,
		momentum = excluded.momentum,
		updated_at = excluded.updated_at`

func (s *SQLiteStore) Upsert(ctx context.Context, bar model.Bar) (model.BarID, error) {
	if _, err := s.UpsertBatch(ctx, []model.Bar{bar}); err != nil {
		return model.BarID{}, err
	}
	return bar.ID(), nil
}

// UpsertBatch writes all bars in one transaction. Either every bar is
// stored or none is.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, bars []model.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistenceErr("begin upsert", err)
	}
	defer tx.Rollback()

	for _, ticker := range distinctTickers(bars) {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM symbols WHERE ticker = ?`, ticker).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, symbolNotFound(ticker)
		}
		if err != nil {
			return 0, persistenceErr("check symbol "+ticker, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertBar)
	if err != nil {
		return 0, persistenceErr("prepare upsert", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, b := range bars {
		args := append(barArgs(b), now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, persistenceErr("upsert bar "+b.ID().String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceErr("commit upsert", err)
	}
	return len(bars), nil
}

func (s *SQLiteStore) GetRange(ctx context.Context, ticker string, q RangeQuery) ([]model.Bar, error) {
	if err := s.requireSymbol(ctx, ticker); err != nil {
		return nil, err
	}

	var (
		where = []string{"ticker = ?"}
		args  = []any{ticker}
	)
	if !q.From.IsZero() {
		where = append(where, "trade_date >= ?")
		args = append(args, q.From.Format(model.DateLayout))
	}
	if !q.To.IsZero() {
		where = append(where, "trade_date <= ?")
		args = append(args, q.To.Format(model.DateLayout))
	}
	query := `SELECT ` + barColumns + ` FROM bars WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY trade_date DESC`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("get range "+ticker, err)
	}
	defer rows.Close()

	bars := []model.Bar{}
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, persistenceErr("get range "+ticker, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("get range "+ticker, err)
	}
	if q.ascending() {
		reverse(bars)
	}
	return bars, nil
}

func (s *SQLiteStore) GetLatest(ctx context.Context, ticker string) (model.Bar, bool, error) {
	bars, err := s.GetRange(ctx, ticker, RangeQuery{Limit: 1})
	if err != nil {
		return model.Bar{}, false, err
	}
	if len(bars) == 0 {
		return model.Bar{}, false, nil
	}
	return bars[0], true, nil
}

func (s *SQLiteStore) Aggregate(ctx context.Context, ticker string, q AggregateQuery) (map[AggregateField]decimal.NullDecimal, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if err := s.requireSymbol(ctx, ticker); err != nil {
		return nil, err
	}

	query := `SELECT ` + q.selectList() + ` FROM bars WHERE ticker = ?`
	args := []any{ticker}
	if !q.From.IsZero() {
		query += ` AND trade_date >= ?`
		args = append(args, q.From.Format(model.DateLayout))
	}
	if !q.To.IsZero() {
		query += ` AND trade_date <= ?`
		args = append(args, q.To.Format(model.DateLayout))
	}

	values := make([]decimal.NullDecimal, len(q.Fields))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		return nil, persistenceErr("aggregate "+ticker, err)
	}

	out := make(map[AggregateField]decimal.NullDecimal, len(q.Fields))
	for i, f := range q.Fields {
		out[f] = values[i]
	}
	return out, nil
}

func (s *SQLiteStore) requireSymbol(ctx context.Context, ticker string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM symbols WHERE ticker = ?`, ticker).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return symbolNotFound(ticker)
	}
	if err != nil {
		return persistenceErr("check symbol "+ticker, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("Closing SQLite store")
	return s.db.Close()
}

func distinctTickers(bars []model.Bar) []string {
	seen := make(map[string]struct{})
	for _, b := range bars {
		seen[b.Ticker] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
