package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureTracker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ft := NewFailureTracker(s)
	ft.now = fixedClock(now)

	n, err := ft.ConsecutiveFailures(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "unknown source has no failures")

	// Success with no prior record is a valid no-op.
	require.NoError(t, ft.RecordSuccess(ctx, testSource))
	n, err = ft.ConsecutiveFailures(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for want := 1; want <= 3; want++ {
		got, err := ft.RecordFailure(ctx, testSource)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	st, err := s.GetFailureState(ctx, testSource)
	require.NoError(t, err)
	assert.True(t, st.LastFailureAt.Equal(now))
	assert.Nil(t, st.LastSuccessAt)

	later := now.Add(10 * time.Minute)
	ft.now = fixedClock(later)
	require.NoError(t, ft.RecordSuccess(ctx, testSource))

	n, err = ft.ConsecutiveFailures(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	st, err = s.GetFailureState(ctx, testSource)
	require.NoError(t, err)
	require.NotNil(t, st.LastSuccessAt)
	assert.True(t, st.LastSuccessAt.Equal(later))

	// A second success leaves the stamp alone.
	ft.now = fixedClock(later.Add(time.Hour))
	require.NoError(t, ft.RecordSuccess(ctx, testSource))
	st, err = s.GetFailureState(ctx, testSource)
	require.NoError(t, err)
	assert.True(t, st.LastSuccessAt.Equal(later))
}

func TestFailureTracker_IsolatedPerSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ft := NewFailureTracker(newTestStore(t))

	_, err := ft.RecordFailure(ctx, "a.test")
	require.NoError(t, err)
	_, err = ft.RecordFailure(ctx, "a.test")
	require.NoError(t, err)
	_, err = ft.RecordFailure(ctx, "b.test")
	require.NoError(t, err)

	a, err := ft.ConsecutiveFailures(ctx, "a.test")
	require.NoError(t, err)
	b, err := ft.ConsecutiveFailures(ctx, "b.test")
	require.NoError(t, err)
	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}
