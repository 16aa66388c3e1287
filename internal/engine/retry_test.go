package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoppen/amiibot/internal/collector"
)

// fakeCycle returns the queued errors in order, then nil.
type fakeCycle struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	started chan struct{}
	block   chan struct{}
}

func (f *fakeCycle) RunCycle(context.Context) error {
	if f.block != nil {
		f.started <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func retryableCycleErr() error {
	return &CycleError{Retryable: []error{collector.ErrTimeout{Err: context.DeadlineExceeded}}}
}

func newTestRetrier(c Cycle, rec *sleepRecorder, opts ...RetrierOption) *Retrier {
	opts = append([]RetrierOption{
		WithSleep(rec.sleep),
		WithRetryLogger(quietLogger()),
	}, opts...)
	return NewRetrier(c, opts...)
}

func TestRetrier_Defaults(t *testing.T) {
	t.Parallel()

	r := NewRetrier(&fakeCycle{})
	assert.Equal(t, DefaultMaxRetryAttempts, r.maxAttempts)
	assert.InDelta(t, DefaultRetryBackoffFactor, r.factor, 0)

	r = NewRetrier(&fakeCycle{}, WithMaxAttempts(0), WithBackoffFactor(0.5))
	assert.Equal(t, DefaultMaxRetryAttempts, r.maxAttempts, "non-positive attempts ignored")
	assert.InDelta(t, DefaultRetryBackoffFactor, r.factor, 0, "factor below 1 ignored")
}

func TestRetrier_Backoff(t *testing.T) {
	t.Parallel()

	r := NewRetrier(&fakeCycle{}, WithBackoffFactor(2))
	assert.Equal(t, 2*time.Second, r.Backoff(1))
	assert.Equal(t, 4*time.Second, r.Backoff(2))
	assert.Equal(t, 8*time.Second, r.Backoff(3))

	r = NewRetrier(&fakeCycle{}, WithBackoffFactor(1.5))
	assert.Equal(t, 2250*time.Millisecond, r.Backoff(2))
}

func TestRetrier_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantWaits []time.Duration
		wantErr   error
	}{
		{
			name:      "success first try",
			wantCalls: 1,
		},
		{
			name:      "timeout then success",
			errs:      []error{retryableCycleErr()},
			wantCalls: 2,
			wantWaits: []time.Duration{2 * time.Second},
		},
		{
			name:      "bare retryable collector error",
			errs:      []error{collector.ErrConnection{Err: errors.New("reset")}},
			wantCalls: 2,
			wantWaits: []time.Duration{2 * time.Second},
		},
		{
			name:      "exhausted",
			errs:      []error{retryableCycleErr(), retryableCycleErr(), retryableCycleErr()},
			wantCalls: 3,
			wantWaits: []time.Duration{2 * time.Second, 4 * time.Second},
			wantErr:   context.DeadlineExceeded,
		},
		{
			name:      "redirect loop aborts",
			errs:      []error{&CycleError{Fatal: []error{collector.ErrTooManyRedirects}}},
			wantCalls: 1,
			wantErr:   collector.ErrTooManyRedirects,
		},
		{
			name: "fatal wins over retryable",
			errs: []error{&CycleError{
				Retryable: []error{collector.ErrTimeout{Err: errors.New("slow")}},
				Fatal:     []error{collector.ErrTooManyRedirects},
			}},
			wantCalls: 1,
			wantErr:   collector.ErrTooManyRedirects,
		},
		{
			name:      "unexpected error aborts",
			errs:      []error{errors.New("database is locked")},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cycle := &fakeCycle{errs: tt.errs}
			rec := &sleepRecorder{}
			r := newTestRetrier(cycle, rec)

			err := r.Run(context.Background())
			assert.Equal(t, tt.wantCalls, cycle.calls)
			assert.Equal(t, tt.wantWaits, rec.waits)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case len(tt.errs) >= tt.wantCalls:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestRetrier_SleepCanceled(t *testing.T) {
	t.Parallel()

	cycle := &fakeCycle{errs: []error{retryableCycleErr()}}
	r := NewRetrier(cycle, WithRetryLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, cycle.calls)
}

func TestRetrier_SingleFlight(t *testing.T) {
	t.Parallel()

	cycle := &fakeCycle{
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	r := newTestRetrier(cycle, &sleepRecorder{})

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	<-cycle.started

	assert.ErrorIs(t, r.Run(context.Background()), ErrCycleInProgress)

	close(cycle.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, cycle.calls)
}
