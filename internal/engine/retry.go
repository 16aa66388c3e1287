package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ecoppen/amiibot/internal/collector"
	"github.com/ecoppen/amiibot/internal/metrics"
)

// Retry defaults.
const (
	DefaultMaxRetryAttempts   = 3
	DefaultRetryBackoffFactor = 2.0
)

// ErrCycleInProgress is returned when a cycle is requested while another
// one is still running.
var ErrCycleInProgress = errors.New("scrape cycle already in progress")

// Cycle runs one pass over all sources.
type Cycle interface {
	RunCycle(ctx context.Context) error
}

// Retrier wraps a Cycle with bounded whole-cycle retries and exponential
// backoff of factor^attempt seconds. Only one wrapped cycle runs at a time.
type Retrier struct {
	cycle       Cycle
	maxAttempts int
	factor      float64
	sleep       func(ctx context.Context, d time.Duration) error
	log         *slog.Logger

	mu sync.Mutex
}

// RetrierOption configures the Retrier.
type RetrierOption func(*Retrier)

// WithMaxAttempts sets the maximum number of attempts per run.
func WithMaxAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoffFactor sets the exponential backoff base.
func WithBackoffFactor(f float64) RetrierOption {
	return func(r *Retrier) {
		if f >= 1 {
			r.factor = f
		}
	}
}

// WithSleep overrides how the Retrier waits between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) {
		r.sleep = fn
	}
}

// WithRetryLogger sets a custom logger.
func WithRetryLogger(l *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		r.log = l
	}
}

// NewRetrier creates a Retrier around cycle.
func NewRetrier(cycle Cycle, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		cycle:       cycle,
		maxAttempts: DefaultMaxRetryAttempts,
		factor:      DefaultRetryBackoffFactor,
		sleep:       sleepContext,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backoff returns the wait after the given 1-based failed attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(r.factor, float64(attempt)) * float64(time.Second))
}

// Run executes the cycle, retrying transient failures. A fatal or
// unexpected error stops immediately. It returns ErrCycleInProgress when
// another Run holds the lock.
func (r *Retrier) Run(ctx context.Context) error {
	if !r.mu.TryLock() {
		metrics.ScrapeCyclesTotal.WithLabelValues("busy").Inc()
		return ErrCycleInProgress
	}
	defer r.mu.Unlock()

	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.cycle.RunCycle(ctx)
		if err == nil {
			metrics.ScrapeCyclesTotal.WithLabelValues("success").Inc()
			return nil
		}

		if ctx.Err() != nil {
			metrics.ScrapeCyclesTotal.WithLabelValues("canceled").Inc()
			return fmt.Errorf("scrape cycle interrupted: %w", ctx.Err())
		}
		if !retryable(err) {
			metrics.ScrapeCyclesTotal.WithLabelValues("fatal").Inc()
			r.log.Error("scrape cycle aborted", "attempt", attempt, "error", err)
			return err
		}

		if attempt == r.maxAttempts {
			break
		}

		wait := r.Backoff(attempt)
		r.log.Warn("scrape cycle failed, retrying",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"backoff", wait,
			"error", err,
		)
		metrics.ScrapeRetriesTotal.Inc()
		if serr := r.sleep(ctx, wait); serr != nil {
			metrics.ScrapeCyclesTotal.WithLabelValues("canceled").Inc()
			return serr
		}
	}

	metrics.ScrapeCyclesTotal.WithLabelValues("exhausted").Inc()
	r.log.Error("scrape cycle retries exhausted", "attempts", r.maxAttempts, "error", err)
	return fmt.Errorf("giving up after %d attempts: %w", r.maxAttempts, err)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr.IsRetryable()
	}
	return collector.IsRetryable(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
