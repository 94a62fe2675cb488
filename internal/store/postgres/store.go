// Package postgres implements the record store on PostgreSQL via pgx, for
// deployments that want the dataset queryable instead of a flat CSV file.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// Config holds connection parameters for the store.
type Config struct {
	DSN      string
	MaxConns int
}

// schema is applied once at startup. It plays the role the CSV header plays
// for the file backend: the one-time structural marker for a fresh store.
const schema = `
CREATE TABLE IF NOT EXISTS trade_records (
	id        BIGSERIAL PRIMARY KEY,
	timestamp TIMESTAMPTZ      NOT NULL,
	symbol    TEXT             NOT NULL,
	side      TEXT             NOT NULL,
	price     DOUBLE PRECISION NOT NULL,
	amount    DOUBLE PRECISION NOT NULL,
	category  TEXT             NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_records_timestamp ON trade_records (timestamp);
`

// Store implements domain.RecordStore using a pgx connection pool. Batch
// atomicity comes from wrapping each append in a transaction.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, ensures the schema exists, and returns a ready
// Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Append inserts the batch inside a single transaction so either every
// record becomes visible or none does.
func (s *Store) Append(ctx context.Context, batch []domain.TradeRecord) error {
	if len(batch) == 0 {
		return nil
	}

	for i, r := range batch {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("postgres: append record %d: %w", i, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO trade_records (timestamp, symbol, side, price, amount, category)
		VALUES ($1, $2, $3, $4, $5, $6)`

	b := &pgx.Batch{}
	for _, r := range batch {
		b.Queue(query, r.Timestamp.UTC(), r.Symbol, string(r.Side), r.Price, r.Amount, string(r.Category))
	}

	br := tx.SendBatch(ctx, b)
	for i := range batch {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres: insert record %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit append: %w", err)
	}
	return nil
}

// Snapshot returns all records in append order. Transaction isolation
// guarantees a committed-batches-only view.
func (s *Store) Snapshot(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT timestamp, symbol, side, price, amount, category
		FROM trade_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: snapshot query: %w", err)
	}
	defer rows.Close()

	var records []domain.TradeRecord
	for rows.Next() {
		var (
			r        domain.TradeRecord
			ts       time.Time
			side     string
			category string
		)
		if err := rows.Scan(&ts, &r.Symbol, &side, &r.Price, &r.Amount, &category); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		r.Timestamp = ts
		r.Side = domain.Side(side)
		r.Category = domain.SizeCategory(category)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: snapshot rows: %w", err)
	}
	return records, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM trade_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Compile-time interface check.
var _ domain.RecordStore = (*Store)(nil)
