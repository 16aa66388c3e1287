//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ecoppen/amiibot/internal/store"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("amiibot_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr, 4)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	require.NoError(t, s.Migrate(ctx))
	// A second run must be a no-op.
	require.NoError(t, s.Migrate(ctx))

	return s
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_StockTx(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	seen := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("insert update delete", func(t *testing.T) {
		var idA, idB int64
		require.NoError(t, s.WithStockTx(ctx, "shopto.net", func(tx store.StockTx) error {
			var err error
			if idA, err = tx.InsertStock(ctx, testListing("a", "£10.00"), seen); err != nil {
				return err
			}
			idB, err = tx.InsertStock(ctx, testListing("b", "£11.00"), seen)
			return err
		}))

		require.NoError(t, s.WithStockTx(ctx, "shopto.net", func(tx store.StockTx) error {
			if err := tx.UpdateStockPrice(ctx, idA, "£12.00", seen.Add(time.Hour)); err != nil {
				return err
			}
			return tx.DeleteStock(ctx, idB)
		}))

		records, err := s.ListStock(ctx, "shopto.net")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "£12.00", records[0].Price)
		assert.True(t, seen.Add(time.Hour).Equal(records[0].LastSeenAt))
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithStockTx(ctx, "game.co.uk", func(tx store.StockTx) error {
			if _, err := tx.InsertStock(ctx, testListing("x", "£1"), seen); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		records, err := s.ListStock(ctx, "game.co.uk")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("duplicate url rejected", func(t *testing.T) {
		err := s.WithStockTx(ctx, "shopto.net", func(tx store.StockTx) error {
			_, err := tx.InsertStock(ctx, testListing("a", "£10.00"), seen)
			return err
		})
		require.Error(t, err)
	})
}

func TestPostgresStore_FailureAndSync(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.GetFailureState(ctx, "play-asia.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	for want := 1; want <= 2; want++ {
		got, err := s.IncrementFailure(ctx, "play-asia.com", now)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	changed, err := s.ResetFailure(ctx, "play-asia.com", now)
	require.NoError(t, err)
	assert.True(t, changed)

	f, err := s.GetFailureState(ctx, "play-asia.com")
	require.NoError(t, err)
	assert.Equal(t, 0, f.ConsecutiveFailures)
	require.NotNil(t, f.LastSuccessAt)

	require.NoError(t, s.TouchSync(ctx, "play-asia.com", now))
	st, err := s.GetSyncState(ctx, "play-asia.com")
	require.NoError(t, err)
	assert.True(t, now.Equal(st.LastAttemptAt))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FailingSources)

	status, err := s.ListSourceStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, "play-asia.com", status[0].SourceID)
}
