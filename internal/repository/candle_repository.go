package repository

import (
	"context"
	"errors"
	"time"

	"tradewinds/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createBarsTable = `
CREATE TABLE IF NOT EXISTS bars (
    symbol      TEXT        NOT NULL,
    interval    TEXT        NOT NULL,
    open_time   TIMESTAMPTZ NOT NULL,
    open        NUMERIC     NOT NULL,
    high        NUMERIC     NOT NULL,
    low         NUMERIC     NOT NULL,
    close       NUMERIC     NOT NULL,
    volume      NUMERIC     NOT NULL,
    PRIMARY KEY (symbol, interval, open_time)
);

CREATE INDEX IF NOT EXISTS idx_bars_symbol_interval_time
    ON bars (symbol, interval, open_time DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BarRepository persists fetched OHLCV bars. Bars are market data, not
// pipeline state; the signal ledger itself never touches the database.
type BarRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBarRepository(pool PgxPool, tracer trace.Tracer) *BarRepository {
	return &BarRepository{pool: pool, tracer: tracer}
}

func (r *BarRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "bar-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBarsTable)
	return err
}

// UpsertBars writes a batch of bars, replacing rows that share the
// (symbol, interval, open_time) key. A re-fetched forming bar overwrites
// its earlier snapshot.
func (r *BarRepository) UpsertBars(ctx context.Context, bars []*domain.Candle) error {
	if len(bars) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "bar-repo.upsert-bars")
	defer span.End()

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO bars (symbol, interval, open_time, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (symbol, interval, open_time) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume`,
			b.Symbol, b.Interval, b.OpenTime, b.Open, b.High, b.Low, b.Close, b.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetBars returns the most recent limit bars for a symbol and interval,
// oldest first so callers can feed them straight into indicator math.
func (r *BarRepository) GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, interval, open_time, open, high, low, close, volume
		 FROM (
		     SELECT symbol, interval, open_time, open, high, low, close, volume
		     FROM bars
		     WHERE symbol = $1 AND interval = $2
		     ORDER BY open_time DESC
		     LIMIT $3
		 ) recent
		 ORDER BY open_time ASC`,
		symbol, interval, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetBarsInRange returns bars between from and to inclusive, oldest first.
func (r *BarRepository) GetBarsInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Candle, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, interval, open_time, open, high, low, close, volume
		 FROM bars
		 WHERE symbol = $1 AND interval = $2 AND open_time >= $3 AND open_time <= $4
		 ORDER BY open_time ASC`,
		symbol, interval, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows)
}

// LatestOpenTime reports the newest stored bar for a symbol and interval,
// or a zero time when none exist.
func (r *BarRepository) LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.latest-open-time")
	defer span.End()

	var openTime time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT open_time FROM bars WHERE symbol = $1 AND interval = $2 ORDER BY open_time DESC LIMIT 1`,
		symbol, interval,
	).Scan(&openTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return openTime, nil
}

func scanBars(rows pgx.Rows) ([]*domain.Candle, error) {
	var bars []*domain.Candle
	for rows.Next() {
		b := &domain.Candle{}
		if err := rows.Scan(&b.Symbol, &b.Interval, &b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
