package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockLens/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PostgresStore persists symbols and bars to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and migrates the schema.
func NewPostgresStore(ctx context.Context, opts Options) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	queryLogger := log.Logger.With().Str("component", "pgx").Logger()
	if opts.QueryLogger != nil {
		queryLogger = *opts.QueryLogger
	}
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   NewPgxZerologAdapter(queryLogger),
		LogLevel: traceLevel(opts.QueryLogLevel),
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msg("PostgreSQL store connected")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			ticker      TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			sector      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS bars (
			ticker           TEXT NOT NULL REFERENCES symbols(ticker) ON DELETE CASCADE,
			trade_date       DATE NOT NULL,
			open             NUMERIC(18,2) NOT NULL,
			high             NUMERIC(18,2) NOT NULL,
			low              NUMERIC(18,2) NOT NULL,
			close            NUMERIC(18,2) NOT NULL,
			volume           BIGINT NOT NULL,
			daily_return     NUMERIC(12,4),
			moving_avg_7     NUMERIC(18,2),
			week_52_high     NUMERIC(18,2),
			week_52_low      NUMERIC(18,2),
			volatility_score NUMERIC(12,4),
			momentum         NUMERIC(12,4),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (ticker, trade_date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// pgBarColumns mirrors barColumns with the date rendered as text.
var pgBarColumns = strings.Replace(barColumns, "trade_date", "trade_date::text", 1)

func (s *PostgresStore) EnsureSymbol(ctx context.Context, sym model.Symbol) error {
	if sym.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", model.ErrBadRequest)
	}
	if sym.Name == "" {
		sym.Name = sym.Ticker
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO symbols (ticker, name, sector, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			description = EXCLUDED.description
	`, sym.Ticker, sym.Name, sym.Sector, sym.Description)
	if err != nil {
		return persistenceErr("ensure symbol "+sym.Ticker, err)
	}
	return nil
}

func (s *PostgresStore) GetSymbol(ctx context.Context, ticker string) (model.Symbol, error) {
	var sym model.Symbol
	err := s.pool.QueryRow(ctx,
		`SELECT ticker, name, sector, description FROM symbols WHERE ticker = $1`, ticker,
	).Scan(&sym.Ticker, &sym.Name, &sym.Sector, &sym.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Symbol{}, symbolNotFound(ticker)
	}
	if err != nil {
		return model.Symbol{}, persistenceErr("get symbol "+ticker, err)
	}
	return sym, nil
}

func (s *PostgresStore) ListSymbols(ctx context.Context) ([]model.Symbol, error) {
	rows, err := s.pool.Query(ctx,
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

func (s *PostgresStore) DeleteSymbol(ctx context.Context, ticker string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM symbols WHERE ticker = $1`, ticker)
	if err != nil {
		return persistenceErr("delete symbol "+ticker, err)
	}
	if tag.RowsAffected() == 0 {
		return symbolNotFound(ticker)
	}
	log.Info().Str("symbol", ticker).Msg("Symbol removed")
	return nil
}

const pgUpsertBar = `
	INSERT INTO bars (` + barColumns + `, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	ON CONFLICT (ticker, trade_date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		daily_return = EXCLUDED.daily_return,
		moving_avg_7 = EXCLUDED.moving_avg_7,
		week_52_high = EXCLUDED.week_52_high,
		week_52_low = EXCLUDED.week_52_low,
		volatility_score = EXCLUDED.volatility_score,
		momentum = EXCLUDED.momentum,
		updated_at = NOW()
`

func (s *PostgresStore) Upsert(ctx context.Context, bar model.Bar) (model.BarID, error) {
	if _, err := s.UpsertBatch(ctx, []model.Bar{bar}); err != nil {
		return model.BarID{}, err
	}
	return bar.ID(), nil
}

// UpsertBatch sends every row in a single pgx.Batch inside one transaction.
func (s *PostgresStore) UpsertBatch(ctx context.Context, bars []model.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, persistenceErr("begin upsert", err)
	}
	defer tx.Rollback(ctx)

	for _, ticker := range distinctTickers(bars) {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM symbols WHERE ticker = $1)`, ticker,
		).Scan(&exists)
		if err != nil {
			return 0, persistenceErr("check symbol "+ticker, err)
		}
		if !exists {
			return 0, symbolNotFound(ticker)
		}
	}

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(pgUpsertBar, barArgs(b)...)
	}
	br := tx.SendBatch(ctx, batch)
	for _, b := range bars {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, persistenceErr("upsert bar "+b.ID().String(), err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, persistenceErr("close batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, persistenceErr("commit upsert", err)
	}
	return len(bars), nil
}

func (s *PostgresStore) GetRange(ctx context.Context, ticker string, q RangeQuery) ([]model.Bar, error) {
	if err := s.requireSymbol(ctx, ticker); err != nil {
		return nil, err
	}

	where := []string{"ticker = $1"}
	args := []any{ticker}
	if !q.From.IsZero() {
		args = append(args, q.From.Format(model.DateLayout))
		where = append(where, fmt.Sprintf("trade_date >= $%d::date", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To.Format(model.DateLayout))
		where = append(where, fmt.Sprintf("trade_date <= $%d::date", len(args)))
	}
	query := `SELECT ` + pgBarColumns + ` FROM bars WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY trade_date DESC`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) GetLatest(ctx context.Context, ticker string) (model.Bar, bool, error) {
	bars, err := s.GetRange(ctx, ticker, RangeQuery{Limit: 1})
	if err != nil {
		return model.Bar{}, false, err
	}
	if len(bars) == 0 {
		return model.Bar{}, false, nil
	}
	return bars[0], true, nil
}

func (s *PostgresStore) Aggregate(ctx context.Context, ticker string, q AggregateQuery) (map[AggregateField]decimal.NullDecimal, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if err := s.requireSymbol(ctx, ticker); err != nil {
		return nil, err
	}

	query := `SELECT ` + q.selectList() + ` FROM bars WHERE ticker = $1`
	args := []any{ticker}
	if !q.From.IsZero() {
		args = append(args, q.From.Format(model.DateLayout))
		query += fmt.Sprintf(" AND trade_date >= $%d::date", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To.Format(model.DateLayout))
		query += fmt.Sprintf(" AND trade_date <= $%d::date", len(args))
	}

	values := make([]decimal.NullDecimal, len(q.Fields))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, persistenceErr("aggregate "+ticker, err)
	}

	out := make(map[AggregateField]decimal.NullDecimal, len(q.Fields))
	for i, f := range q.Fields {
		out[f] = values[i]
	}
	return out, nil
}

func (s *PostgresStore) requireSymbol(ctx context.Context, ticker string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM symbols WHERE ticker = $1)`, ticker,
	).Scan(&exists)
	if err != nil {
		return persistenceErr("check symbol "+ticker, err)
	}
	if !exists {
		return symbolNotFound(ticker)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	log.Info().Msg("Closing PostgreSQL connection pool")
	s.pool.Close()
	return nil
}
