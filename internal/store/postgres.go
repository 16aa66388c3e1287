package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// Covered by the integration tests only; they need a live Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore with connection pooling.
// A poolSize of zero uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if poolSize > 0 {
		cfg.MaxConns = int32(poolSize) //nolint:gosec // bounded by config validation
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// WithStockTx runs fn inside a transaction holding a per-source advisory lock.
func (s *PostgresStore) WithStockTx(
	ctx context.Context,
	sourceID string,
	fn func(tx StockTx) error,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgLockSource, sourceID); err != nil {
			return fmt.Errorf("locking source %s: %w", sourceID, err)
		}
		return fn(&pgStockTx{tx: tx, sourceID: sourceID})
	})
}

// ListStock returns the ledger for sourceID, or for every source when
// sourceID is empty.
func (s *PostgresStore) ListStock(ctx context.Context, sourceID string) ([]domain.StockRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if sourceID == "" {
		rows, err = s.pool.Query(ctx, pgListAllStock)
	} else {
		rows, err = s.pool.Query(ctx, pgListStockBySource, sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	return collectStockRows(rows)
}

// QueryStock returns one page of ledger rows plus the total match count.
func (s *PostgresStore) QueryStock(ctx context.Context, q *StockQuery) ([]domain.StockRecord, int, error) {
	if q == nil {
		q = &StockQuery{}
	}
	dataSQL, countSQL, args := q.toSQL(dollarPlaceholder)

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stock: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying stock: %w", err)
	}
	records, err := collectStockRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// IncrementFailure upserts the failure counter and returns the new value.
func (s *PostgresStore) IncrementFailure(ctx context.Context, sourceID string, at time.Time) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, pgIncrementFailure, sourceID, at).Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing failure count for %s: %w", sourceID, err)
	}
	return count, nil
}

// ResetFailure zeroes a nonzero failure counter.
func (s *PostgresStore) ResetFailure(ctx context.Context, sourceID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgResetFailure, sourceID, at)
	if err != nil {
		return false, fmt.Errorf("resetting failure count for %s: %w", sourceID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetFailureState returns the failure row for sourceID or ErrNotFound.
func (s *PostgresStore) GetFailureState(ctx context.Context, sourceID string) (*domain.FailureState, error) {
	var f domain.FailureState
	err := s.pool.QueryRow(ctx, pgGetFailureState, sourceID).Scan(
		&f.SourceID, &f.ConsecutiveFailures, &f.LastFailureAt, &f.LastSuccessAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting failure state for %s: %w", sourceID, err)
	}
	return &f, nil
}

// TouchSync stamps last_attempt_at for sourceID.
func (s *PostgresStore) TouchSync(ctx context.Context, sourceID string, at time.Time) error {
	if _, err := s.pool.Exec(ctx, pgTouchSync, sourceID, at); err != nil {
		return fmt.Errorf("touching sync state for %s: %w", sourceID, err)
	}
	return nil
}

// GetSyncState returns the sync row for sourceID or ErrNotFound.
func (s *PostgresStore) GetSyncState(ctx context.Context, sourceID string) (*domain.SourceSyncState, error) {
	var st domain.SourceSyncState
	err := s.pool.QueryRow(ctx, pgGetSyncState, sourceID).Scan(&st.SourceID, &st.LastAttemptAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync state for %s: %w", sourceID, err)
	}
	return &st, nil
}

// GetStats summarizes the ledger and failure counters.
func (s *PostgresStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats
	if err := s.pool.QueryRow(ctx, pgGetStats).Scan(
		&st.TotalListings, &st.TotalSources, &st.FailingSources,
	); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return &st, nil
}

// ListSourceStatus returns the joined sync, failure and ledger counts of
// every source the database knows about.
func (s *PostgresStore) ListSourceStatus(ctx context.Context) ([]domain.SourceStatus, error) {
	rows, err := s.pool.Query(ctx, pgListSourceStatus)
	if err != nil {
		return nil, fmt.Errorf("listing source status: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceStatus
	for rows.Next() {
		var st domain.SourceStatus
		if err := rows.Scan(
			&st.SourceID, &st.Listings, &st.LastAttemptAt,
			&st.ConsecutiveFailures, &st.LastFailureAt, &st.LastSuccessAt,
		); err != nil {
			return nil, fmt.Errorf("scanning source status: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source status: %w", err)
	}
	return out, nil
}

// pgStockTx implements StockTx on a pgx transaction.
type pgStockTx struct {
	tx       pgx.Tx
	sourceID string
}

func (t *pgStockTx) ListStock(ctx context.Context) ([]domain.StockRecord, error) {
	rows, err := t.tx.Query(ctx, pgListStockBySource, t.sourceID)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	return collectStockRows(rows)
}

func (t *pgStockTx) InsertStock(ctx context.Context, l *domain.Listing, seenAt time.Time) (int64, error) {
	args := pgx.NamedArgs{
		"source_id":    t.sourceID,
		"title":        l.Title,
		"price":        l.Price,
		"stock_label":  l.StockLabel,
		"detail_url":   l.DetailURL,
		"image_url":    l.ImageURL,
		"last_seen_at": seenAt,
	}
	var id int64
	if err := t.tx.QueryRow(ctx, pgInsertStock, args).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting stock %s: %w", l.DetailURL, err)
	}
	return id, nil
}

func (t *pgStockTx) UpdateStockPrice(ctx context.Context, id int64, price string, seenAt time.Time) error {
	tag, err := t.tx.Exec(ctx, pgUpdateStockPrice, id, t.sourceID, price, seenAt)
	if err != nil {
		return fmt.Errorf("updating stock %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating stock %d: %w", id, ErrNotFound)
	}
	return nil
}

func (t *pgStockTx) DeleteStock(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, pgDeleteStock, id, t.sourceID)
	if err != nil {
		return fmt.Errorf("deleting stock %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting stock %d: %w", id, ErrNotFound)
	}
	return nil
}

func collectStockRows(rows pgx.Rows) ([]domain.StockRecord, error) {
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StockRecord, error) {
		var r domain.StockRecord
		err := row.Scan(
			&r.ID, &r.SourceID, &r.Title, &r.Price, &r.StockLabel,
			&r.DetailURL, &r.ImageURL, &r.LastSeenAt,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning stock rows: %w", err)
	}
	return records, nil
}
