package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ecoppen/amiibot/internal/store"
	"github.com/ecoppen/amiibot/pkg/price"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

// ErrEmptyObservation is returned when Reconcile is called without listings.
var ErrEmptyObservation = errors.New("reconcile called with no listings")

// ReconcileResult is the outcome of one Reconcile call.
type ReconcileResult struct {
	// Events are ordered New, then Updated, then Delisted.
	Events []domain.ChangeEvent
	// FirstRun is true when the source had no records before this call.
	FirstRun bool

	New       int
	Updated   int
	Unchanged int
	Delisted  int
}

// Ledger holds the persisted snapshot of known listings per source and
// diffs new observations against it.
type Ledger struct {
	store store.LedgerStore
	log   *slog.Logger
	now   func() time.Time
}

// NewLedger creates a Ledger backed by s.
func NewLedger(s store.LedgerStore, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: s, log: log, now: time.Now}
}

// Reconcile diffs observed against the stored records for sourceID,
// applies the diff in a single transaction, and returns the resulting
// events. observed must be non-empty and already validated. Listings are
// matched by detail URL; only a price change produces an Updated event.
// Repeated detail URLs in observed keep their first occurrence.
func (l *Ledger) Reconcile(
	ctx context.Context,
	sourceID string,
	observed []domain.Listing,
) (*ReconcileResult, error) {
	if len(observed) == 0 {
		return nil, ErrEmptyObservation
	}
	for i := range observed {
		if observed[i].SourceID != sourceID {
			return nil, fmt.Errorf("listing %s belongs to %s, not %s",
				observed[i].DetailURL, observed[i].SourceID, sourceID)
		}
	}

	seenAt := l.now().UTC()
	var res *ReconcileResult

	err := l.store.WithStockTx(ctx, sourceID, func(tx store.StockTx) error {
		existing, err := tx.ListStock(ctx)
		if err != nil {
			return fmt.Errorf("loading stock: %w", err)
		}

		r, err := l.apply(ctx, tx, existing, dedupe(observed), seenAt)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconciling %s: %w", sourceID, err)
	}

	return res, nil
}

func (l *Ledger) apply(
	ctx context.Context,
	tx store.StockTx,
	existing []domain.StockRecord,
	observed []domain.Listing,
	seenAt time.Time,
) (*ReconcileResult, error) {
	res := &ReconcileResult{FirstRun: len(existing) == 0}

	if res.FirstRun {
		for i := range observed {
			if _, err := tx.InsertStock(ctx, &observed[i], seenAt); err != nil {
				return nil, fmt.Errorf("inserting %s: %w", observed[i].DetailURL, err)
			}
			res.Events = append(res.Events, domain.ChangeEvent{Kind: domain.EventNew, Listing: observed[i]})
		}
		res.New = len(observed)
		return res, nil
	}

	byURL := make(map[string]*domain.StockRecord, len(existing))
	for i := range existing {
		byURL[existing[i].DetailURL] = &existing[i]
	}

	var added, updated, delisted []domain.ChangeEvent
	matched := make(map[string]struct{}, len(observed))

	for i := range observed {
		obs := &observed[i]
		rec, ok := byURL[obs.DetailURL]
		if !ok {
			if _, err := tx.InsertStock(ctx, obs, seenAt); err != nil {
				return nil, fmt.Errorf("inserting %s: %w", obs.DetailURL, err)
			}
			added = append(added, domain.ChangeEvent{Kind: domain.EventNew, Listing: *obs})
			continue
		}

		matched[obs.DetailURL] = struct{}{}
		if l.samePrice(rec.Price, obs.Price) {
			res.Unchanged++
			continue
		}

		if err := tx.UpdateStockPrice(ctx, rec.ID, obs.Price, seenAt); err != nil {
			return nil, fmt.Errorf("updating %s: %w", obs.DetailURL, err)
		}
		snapshot := *obs
		snapshot.StockLabel = domain.StockPriceChange
		snapshot.SeverityColor = domain.ColorPriceChange
		updated = append(updated, domain.ChangeEvent{
			Kind:          domain.EventUpdated,
			Listing:       snapshot,
			PreviousPrice: rec.Price,
		})
	}

	for i := range existing {
		rec := &existing[i]
		if _, ok := matched[rec.DetailURL]; ok {
			continue
		}
		if err := tx.DeleteStock(ctx, rec.ID); err != nil {
			return nil, fmt.Errorf("deleting %s: %w", rec.DetailURL, err)
		}
		delisted = append(delisted, domain.ChangeEvent{
			Kind:    domain.EventDelisted,
			Listing: rec.Listing(domain.StockDelisted, domain.ColorDelisted),
		})
	}

	res.New, res.Updated, res.Delisted = len(added), len(updated), len(delisted)
	res.Events = make([]domain.ChangeEvent, 0, len(added)+len(updated)+len(delisted))
	res.Events = append(res.Events, added...)
	res.Events = append(res.Events, updated...)
	res.Events = append(res.Events, delisted...)
	return res, nil
}

// samePrice compares normalized prices. Strings that cannot be parsed
// fall back to an exact comparison of the trimmed text.
func (l *Ledger) samePrice(stored, observed string) bool {
	eq, err := price.Equal(stored, observed)
	if err != nil {
		l.log.Warn("comparing unparseable prices as text",
			"stored", stored,
			"observed", observed,
			"error", err,
		)
		return strings.TrimSpace(stored) == strings.TrimSpace(observed)
	}
	return eq
}

func dedupe(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.DetailURL]; ok {
			continue
		}
		seen[l.DetailURL] = struct{}{}
		out = append(out, l)
	}
	return out
}
