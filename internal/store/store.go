// Package store defines the persistence layer for amiibot: the stock
// ledger, per-source failure counters and per-source sync timestamps.
// Business logic depends on the interfaces here, never on a concrete
// backend. Postgres (pgx) and SQLite (modernc) implementations are provided.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Supported database engines.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// StockTx is the set of ledger operations available inside a single
// per-source transaction. Every method is scoped to the source the
// transaction was opened for.
type StockTx interface {
	ListStock(ctx context.Context) ([]domain.StockRecord, error)
	InsertStock(ctx context.Context, l *domain.Listing, seenAt time.Time) (int64, error)
	UpdateStockPrice(ctx context.Context, id int64, price string, seenAt time.Time) error
	DeleteStock(ctx context.Context, id int64) error
}

// LedgerStore persists StockRecords.
type LedgerStore interface {
	// WithStockTx runs fn in one transaction scoped to sourceID. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithStockTx(ctx context.Context, sourceID string, fn func(tx StockTx) error) error
	ListStock(ctx context.Context, sourceID string) ([]domain.StockRecord, error)
	QueryStock(ctx context.Context, q *StockQuery) ([]domain.StockRecord, int, error)
}

// FailureStore persists per-source consecutive failure counters.
type FailureStore interface {
	// IncrementFailure creates the row at 1 or increments it, stamps
	// last_failure_at and returns the new count.
	IncrementFailure(ctx context.Context, sourceID string, at time.Time) (int, error)
	// ResetFailure zeroes a nonzero counter and stamps last_success_at. It
	// reports whether a row was changed.
	ResetFailure(ctx context.Context, sourceID string, at time.Time) (bool, error)
	GetFailureState(ctx context.Context, sourceID string) (*domain.FailureState, error)
}

// SyncStore persists per-source last attempt timestamps.
type SyncStore interface {
	TouchSync(ctx context.Context, sourceID string, at time.Time) error
	GetSyncState(ctx context.Context, sourceID string) (*domain.SourceSyncState, error)
}

// Store combines every data access operation used by amiibot.
type Store interface {
	LedgerStore
	FailureStore
	SyncStore

	GetStats(ctx context.Context) (*domain.Stats, error)
	ListSourceStatus(ctx context.Context) ([]domain.SourceStatus, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Engine   string
	DSN      string
	PoolSize int
}

// Open connects to the backend named by opts.Engine.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Engine {
	case EnginePostgres:
		s, err := NewPostgresStore(ctx, opts.DSN, opts.PoolSize)
		if err != nil {
			return nil, err
		}
		return s, nil
	case EngineSQLite, "":
		s, err := NewSQLiteStore(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", opts.Engine)
	}
}
