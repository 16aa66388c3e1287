package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

func newTestLedger(t *testing.T) (*Ledger, *storeHandle) {
	t.Helper()
	s := newTestStore(t)
	return NewLedger(s, quietLogger()), &storeHandle{t: t, s: s}
}

type storeHandle struct {
	t *testing.T
	s interface {
		ListStock(ctx context.Context, sourceID string) ([]domain.StockRecord, error)
	}
}

func (h *storeHandle) prices() map[string]string {
	h.t.Helper()
	recs, err := h.s.ListStock(context.Background(), testSource)
	require.NoError(h.t, err)
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.DetailURL] = r.Price
	}
	return out
}

func kinds(events []domain.ChangeEvent) []domain.EventKind {
	out := make([]domain.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestReconcile_FirstObservationIsAllNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$10.00")})
	require.NoError(t, err)

	assert.True(t, res.FirstRun)
	assert.Equal(t, 1, res.New)
	require.Len(t, res.Events, 1)
	assert.Equal(t, domain.EventNew, res.Events[0].Kind)
	assert.Equal(t, listing("a", "$10.00"), res.Events[0].Listing)
	assert.Equal(t, map[string]string{"https://shop.test/p/a": "$10.00"}, h.prices())
}

func TestReconcile_PriceChangeIsUpdated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$10.00")})
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$12.00")})
	require.NoError(t, err)

	assert.False(t, res.FirstRun)
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, domain.EventUpdated, ev.Kind)
	assert.Equal(t, "$12.00", ev.Listing.Price)
	assert.Equal(t, "$10.00", ev.PreviousPrice)
	assert.Equal(t, domain.StockPriceChange, ev.Listing.StockLabel)
	assert.Equal(t, domain.ColorPriceChange, ev.Listing.SeverityColor)
	assert.Equal(t, map[string]string{"https://shop.test/p/a": "$12.00"}, h.prices())
}

func TestReconcile_MissingIsDelisted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{
		listing("a", "$10.00"),
		listing("b", "$20.00"),
	})
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$10.00")})
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, domain.EventDelisted, ev.Kind)
	assert.Equal(t, "https://shop.test/p/b", ev.Listing.DetailURL)
	assert.Equal(t, "$20.00", ev.Listing.Price)
	assert.Equal(t, domain.StockDelisted, ev.Listing.StockLabel)
	assert.Equal(t, domain.ColorDelisted, ev.Listing.SeverityColor)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, map[string]string{"https://shop.test/p/a": "$10.00"}, h.prices())
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, _ := newTestLedger(t)
	observed := []domain.Listing{listing("a", "£1,234.56"), listing("b", "£5")}

	_, err := ledger.Reconcile(ctx, testSource, observed)
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, observed)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Equal(t, 2, res.Unchanged)
}

func TestReconcile_EquivalentPriceFormatsAreUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$1,234.56")})
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "1234.56")})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	// Unchanged records keep their stored text.
	assert.Equal(t, "$1,234.56", h.prices()["https://shop.test/p/a"])
}

func TestReconcile_StockLabelOnlyChangeIsSilent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$10.00")})
	require.NoError(t, err)

	oos := listing("a", "$10.00")
	oos.StockLabel = domain.StockOutOfStock
	oos.SeverityColor = domain.ColorOutOfStock

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{oos})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestReconcile_ConservationAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{
		listing("keep", "€5,00"),
		listing("change", "€7,00"),
		listing("gone1", "€1,00"),
		listing("gone2", "€2,00"),
	})
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{
		listing("change", "€8,00"),
		listing("new1", "€3,00"),
		listing("keep", "€5.00"),
		listing("new2", "€4,00"),
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.EventKind{
		domain.EventNew,
		domain.EventNew,
		domain.EventUpdated,
		domain.EventDelisted,
		domain.EventDelisted,
	}, kinds(res.Events))
	assert.Equal(t, "https://shop.test/p/new1", res.Events[0].Listing.DetailURL)
	assert.Equal(t, "https://shop.test/p/new2", res.Events[1].Listing.DetailURL)
	assert.Equal(t, "https://shop.test/p/gone1", res.Events[3].Listing.DetailURL)
	assert.Equal(t, "https://shop.test/p/gone2", res.Events[4].Listing.DetailURL)

	// Every prior record and every observed item is classified once:
	// |before ∪ observed| = 6 = new + updated + unchanged + delisted.
	assert.Equal(t, 6, res.New+res.Updated+res.Unchanged+res.Delisted)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 2, res.Delisted)

	assert.Equal(t, map[string]string{
		"https://shop.test/p/keep":   "€5,00",
		"https://shop.test/p/change": "€8,00",
		"https://shop.test/p/new1":   "€3,00",
		"https://shop.test/p/new2":   "€4,00",
	}, h.prices())
}

func TestReconcile_DuplicateURLsKeepFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{
		listing("a", "$1"),
		listing("a", "$2"),
	})
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	assert.Equal(t, map[string]string{"https://shop.test/p/a": "$1"}, h.prices())
}

func TestReconcile_UnparseablePricesCompareAsText(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "Sold out")})
	require.NoError(t, err)

	res, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", " Sold out ")})
	require.NoError(t, err)
	assert.Empty(t, res.Events)

	res, err = ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "£9.99")})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, domain.EventUpdated, res.Events[0].Kind)
}

func TestReconcile_Preconditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger, h := newTestLedger(t)

	_, err := ledger.Reconcile(ctx, testSource, nil)
	require.ErrorIs(t, err, ErrEmptyObservation)

	other := listing("a", "$1")
	other.SourceID = "other.test"
	_, err = ledger.Reconcile(ctx, testSource, []domain.Listing{other})
	require.Error(t, err)

	assert.Empty(t, h.prices())
}

func TestReconcile_SourcesAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	ledger := NewLedger(s, quietLogger())

	_, err := ledger.Reconcile(ctx, testSource, []domain.Listing{listing("a", "$1")})
	require.NoError(t, err)

	other := listing("z", "$1")
	other.SourceID = "other.test"
	res, err := ledger.Reconcile(ctx, "other.test", []domain.Listing{other})
	require.NoError(t, err)
	assert.True(t, res.FirstRun)

	assert.Len(t, stockURLs(t, s, testSource), 1)
	assert.Len(t, stockURLs(t, s, "other.test"), 1)
}
