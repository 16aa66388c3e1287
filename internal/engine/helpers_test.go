package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecoppen/amiibot/internal/store"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

const testSource = "shop.test"

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := store.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "amiibot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func listing(url, price string) domain.Listing {
	return domain.Listing{
		SourceID:      testSource,
		Title:         "amiibo " + url,
		Price:         price,
		StockLabel:    domain.StockInStock,
		DetailURL:     "https://shop.test/p/" + url,
		ImageURL:      "https://shop.test/img/" + url + ".jpg",
		SeverityColor: domain.ColorInStock,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func stockURLs(t *testing.T, s store.LedgerStore, source string) map[string]string {
	t.Helper()
	recs, err := s.ListStock(context.Background(), source)
	require.NoError(t, err)
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.DetailURL] = r.Price
	}
	return out
}
