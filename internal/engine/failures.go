package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecoppen/amiibot/internal/store"
)

// FailureTracker counts back-to-back failed polls per source. The
// counter only rises until a genuine success resets it.
type FailureTracker struct {
	store store.FailureStore
	now   func() time.Time
}

// NewFailureTracker creates a FailureTracker backed by s.
func NewFailureTracker(s store.FailureStore) *FailureTracker {
	return &FailureTracker{store: s, now: time.Now}
}

// RecordFailure increments the source's counter, creating it at 1, and
// returns the new count.
func (f *FailureTracker) RecordFailure(ctx context.Context, sourceID string) (int, error) {
	n, err := f.store.IncrementFailure(ctx, sourceID, f.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("recording failure for %s: %w", sourceID, err)
	}
	return n, nil
}

// RecordSuccess resets a nonzero counter and stamps last_success_at. It
// is a no-op for a source with no failures on record.
func (f *FailureTracker) RecordSuccess(ctx context.Context, sourceID string) error {
	if _, err := f.store.ResetFailure(ctx, sourceID, f.now().UTC()); err != nil {
		return fmt.Errorf("recording success for %s: %w", sourceID, err)
	}
	return nil
}

// ConsecutiveFailures returns the current counter, 0 for an unknown source.
func (f *FailureTracker) ConsecutiveFailures(ctx context.Context, sourceID string) (int, error) {
	st, err := f.store.GetFailureState(ctx, sourceID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting failure state for %s: %w", sourceID, err)
	}
	return st.ConsecutiveFailures, nil
}
