package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	domain "github.com/ecoppen/amiibot/pkg/types"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on an embedded SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
// Migrations are not applied; call Migrate.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return runSQLiteMigrations(ctx, s.db)
}

// WithStockTx runs fn inside a single SQLite transaction.
func (s *SQLiteStore) WithStockTx(
	ctx context.Context,
	sourceID string,
	fn func(tx StockTx) error,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&sqliteStockTx{tx: tx, sourceID: sourceID}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListStock returns the ledger for sourceID, or for every source when
// sourceID is empty.
func (s *SQLiteStore) ListStock(ctx context.Context, sourceID string) ([]domain.StockRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if sourceID == "" {
		rows, err = s.db.QueryContext(ctx, sqliteListAllStock)
	} else {
		rows, err = s.db.QueryContext(ctx, sqliteListStockBySource, sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	return scanStockRows(rows)
}

// QueryStock returns one page of ledger rows plus the total match count.
func (s *SQLiteStore) QueryStock(ctx context.Context, q *StockQuery) ([]domain.StockRecord, int, error) {
	if q == nil {
		q = &StockQuery{}
	}
	dataSQL, countSQL, args := q.toSQL(questionPlaceholder)

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stock: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying stock: %w", err)
	}
	records, err := scanStockRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// IncrementFailure upserts the failure counter and returns the new value.
func (s *SQLiteStore) IncrementFailure(ctx context.Context, sourceID string, at time.Time) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, sqliteIncrementFailure, sourceID, formatTime(at)).Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing failure count for %s: %w", sourceID, err)
	}
	return count, nil
}

// ResetFailure zeroes a nonzero failure counter.
func (s *SQLiteStore) ResetFailure(ctx context.Context, sourceID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, sqliteResetFailure, formatTime(at), sourceID)
	if err != nil {
		return false, fmt.Errorf("resetting failure count for %s: %w", sourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resetting failure count for %s: %w", sourceID, err)
	}
	return n > 0, nil
}

// GetFailureState returns the failure row for sourceID or ErrNotFound.
func (s *SQLiteStore) GetFailureState(ctx context.Context, sourceID string) (*domain.FailureState, error) {
	var (
		f           domain.FailureState
		lastFailure string
		lastSuccess sql.NullString
	)
	err := s.db.QueryRowContext(ctx, sqliteGetFailureState, sourceID).Scan(
		&f.SourceID, &f.ConsecutiveFailures, &lastFailure, &lastSuccess,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting failure state for %s: %w", sourceID, err)
	}

	if f.LastFailureAt, err = parseTime(lastFailure); err != nil {
		return nil, err
	}
	if f.LastSuccessAt, err = parseNullableTime(lastSuccess); err != nil {
		return nil, err
	}
	return &f, nil
}

// TouchSync stamps last_attempt_at for sourceID.
func (s *SQLiteStore) TouchSync(ctx context.Context, sourceID string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, sqliteTouchSync, sourceID, formatTime(at)); err != nil {
		return fmt.Errorf("touching sync state for %s: %w", sourceID, err)
	}
	return nil
}

// GetSyncState returns the sync row for sourceID or ErrNotFound.
func (s *SQLiteStore) GetSyncState(ctx context.Context, sourceID string) (*domain.SourceSyncState, error) {
	var (
		st          domain.SourceSyncState
		lastAttempt string
	)
	err := s.db.QueryRowContext(ctx, sqliteGetSyncState, sourceID).Scan(&st.SourceID, &lastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync state for %s: %w", sourceID, err)
	}
	if st.LastAttemptAt, err = parseTime(lastAttempt); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStats summarizes the ledger and failure counters.
func (s *SQLiteStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats
	if err := s.db.QueryRowContext(ctx, sqliteGetStats).Scan(
		&st.TotalListings, &st.TotalSources, &st.FailingSources,
	); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return &st, nil
}

// ListSourceStatus returns the joined sync, failure and ledger counts of
// every source the database knows about.
func (s *SQLiteStore) ListSourceStatus(ctx context.Context) ([]domain.SourceStatus, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListSourceStatus)
	if err != nil {
		return nil, fmt.Errorf("listing source status: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceStatus
	for rows.Next() {
		var (
			st                             domain.SourceStatus
			attempt, lastFailure, lastSucc sql.NullString
		)
		if err := rows.Scan(
			&st.SourceID, &st.Listings, &attempt,
			&st.ConsecutiveFailures, &lastFailure, &lastSucc,
		); err != nil {
			return nil, fmt.Errorf("scanning source status: %w", err)
		}
		if st.LastAttemptAt, err = parseNullableTime(attempt); err != nil {
			return nil, err
		}
		if st.LastFailureAt, err = parseNullableTime(lastFailure); err != nil {
			return nil, err
		}
		if st.LastSuccessAt, err = parseNullableTime(lastSucc); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source status: %w", err)
	}
	return out, nil
}

// sqliteStockTx implements StockTx on a database/sql transaction.
type sqliteStockTx struct {
	tx       *sql.Tx
	sourceID string
}

func (t *sqliteStockTx) ListStock(ctx context.Context) ([]domain.StockRecord, error) {
	rows, err := t.tx.QueryContext(ctx, sqliteListStockBySource, t.sourceID)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	return scanStockRows(rows)
}

func (t *sqliteStockTx) InsertStock(ctx context.Context, l *domain.Listing, seenAt time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, sqliteInsertStock,
		t.sourceID, l.Title, l.Price, l.StockLabel, l.DetailURL, l.ImageURL, formatTime(seenAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting stock %s: %w", l.DetailURL, err)
	}
	return id, nil
}

func (t *sqliteStockTx) UpdateStockPrice(ctx context.Context, id int64, price string, seenAt time.Time) error {
	res, err := t.tx.ExecContext(ctx, sqliteUpdateStockPrice, price, formatTime(seenAt), id, t.sourceID)
	if err != nil {
		return fmt.Errorf("updating stock %d: %w", id, err)
	}
	return requireAffected(res, "updating", id)
}

func (t *sqliteStockTx) DeleteStock(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, sqliteDeleteStock, id, t.sourceID)
	if err != nil {
		return fmt.Errorf("deleting stock %d: %w", id, err)
	}
	return requireAffected(res, "deleting", id)
}

func requireAffected(res sql.Result, verb string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s stock %d: %w", verb, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s stock %d: %w", verb, id, ErrNotFound)
	}
	return nil
}

func scanStockRows(rows *sql.Rows) ([]domain.StockRecord, error) {
	defer rows.Close()

	var records []domain.StockRecord
	for rows.Next() {
		var (
			r        domain.StockRecord
			lastSeen string
		)
		if err := rows.Scan(
			&r.ID, &r.SourceID, &r.Title, &r.Price, &r.StockLabel,
			&r.DetailURL, &r.ImageURL, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("scanning stock rows: %w", err)
		}
		var err error
		if r.LastSeenAt, err = parseTime(lastSeen); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock rows: %w", err)
	}
	return records, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
