package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecoppen/amiibot/internal/collector"
	"github.com/ecoppen/amiibot/internal/metrics"
	"github.com/ecoppen/amiibot/internal/store"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

const tracerName = "github.com/ecoppen/amiibot/internal/engine"

// Dispatcher delivers change events to named subscribers and plain text
// to every messenger.
type Dispatcher interface {
	Notify(ctx context.Context, ev domain.ChangeEvent, subscribers []string) error
	Broadcast(ctx context.Context, text string) error
}

// Router answers which subscribers care about a source.
type Router interface {
	Subscribers(sourceID string) []string
}

// CycleError summarizes the per-source failures of one cycle that matter
// to the retry policy. Permanent per-source failures such as a 404 or
// an unparseable page are recorded by the tracker and left out. Any
// unclassified collector error is fatal.
type CycleError struct {
	Retryable []error
	Fatal     []error
}

func (e *CycleError) Error() string {
	msgs := make([]string, 0, len(e.Fatal)+len(e.Retryable))
	for _, err := range e.Fatal {
		msgs = append(msgs, err.Error())
	}
	for _, err := range e.Retryable {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("cycle failed (%d fatal, %d retryable): %s",
		len(e.Fatal), len(e.Retryable), strings.Join(msgs, "; "))
}

func (e *CycleError) Unwrap() []error {
	out := make([]error, 0, len(e.Fatal)+len(e.Retryable))
	out = append(out, e.Fatal...)
	return append(out, e.Retryable...)
}

// IsRetryable reports whether the cycle is worth running again.
func (e *CycleError) IsRetryable() bool {
	return len(e.Fatal) == 0 && len(e.Retryable) > 0
}

func (e *CycleError) empty() bool {
	return len(e.Fatal) == 0 && len(e.Retryable) == 0
}

// Controller drives one pass over every configured source: collect,
// validate, track failures, reconcile and notify. Sources are processed
// sequentially and a failing source never stops the others.
type Controller struct {
	collectors []collector.Collector
	store      store.Store
	tracker    *FailureTracker
	ledger     *Ledger
	dispatcher Dispatcher
	router     Router
	log        *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	notifyFirstRun bool
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = l
	}
}

// WithTracer sets the tracer used for cycle and source spans.
func WithTracer(t trace.Tracer) ControllerOption {
	return func(c *Controller) {
		c.tracer = t
	}
}

// WithNotifyFirstRun controls whether the New events of a source's
// first-ever observation are forwarded. When false the first run only
// seeds the ledger.
func WithNotifyFirstRun(notify bool) ControllerOption {
	return func(c *Controller) {
		c.notifyFirstRun = notify
	}
}

// WithClock overrides the time source used for stamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a Controller over collectors with injected
// dependencies.
func NewController(
	collectors []collector.Collector,
	s store.Store,
	d Dispatcher,
	r Router,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		collectors:     collectors,
		store:          s,
		dispatcher:     d,
		router:         r,
		log:            slog.Default(),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		notifyFirstRun: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tracker = &FailureTracker{store: s, now: c.now}
	c.ledger = &Ledger{store: s, log: c.log, now: c.now}
	return c
}

// Sources returns the ids of the configured sources in cycle order.
func (c *Controller) Sources() []string {
	ids := make([]string, len(c.collectors))
	for i, col := range c.collectors {
		ids[i] = col.Source()
	}
	return ids
}

// Tracker returns the controller's failure tracker.
func (c *Controller) Tracker() *FailureTracker {
	return c.tracker
}

// RunCycle processes every source once. It returns a *CycleError when any
// source failed in a way the retry policy cares about, or the context
// error when canceled between sources.
func (c *Controller) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.ScrapeCycleDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, span := c.tracer.Start(ctx, "scrape.cycle",
		trace.WithAttributes(attribute.Int("sources", len(c.collectors))),
	)
	defer span.End()

	cycleErr := &CycleError{}
	for _, col := range c.collectors {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return err
		}

		err := c.processSource(ctx, col)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			span.RecordError(err)
			return err
		case collector.IsFatal(err):
			cycleErr.Fatal = append(cycleErr.Fatal, err)
		case collector.IsRetryable(err):
			cycleErr.Retryable = append(cycleErr.Retryable, err)
		case isCollectError(err) && collector.IsPermanent(err):
			// Recorded against the source; nothing to retry.
		default:
			cycleErr.Fatal = append(cycleErr.Fatal, err)
		}
	}

	if cycleErr.empty() {
		return nil
	}
	span.RecordError(cycleErr)
	span.SetStatus(codes.Error, "cycle had failing sources")
	return cycleErr
}

// collectError marks a failure returned by a Collector, as opposed to
// one raised by the store or the ledger.
type collectError struct {
	source string
	err    error
}

func (e *collectError) Error() string {
	return fmt.Sprintf("collecting %s: %s", e.source, e.err)
}

func (e *collectError) Unwrap() error {
	return e.err
}

func isCollectError(err error) bool {
	var ce *collectError
	return errors.As(err, &ce)
}

func (c *Controller) processSource(ctx context.Context, col collector.Collector) error {
	src := col.Source()
	ctx, span := c.tracer.Start(ctx, "scrape.source",
		trace.WithAttributes(attribute.String("source", src)),
	)
	defer span.End()

	listings, err := col.Collect(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect failed")
		if ferr := c.recordFailure(ctx, src, collector.Category(err), err); ferr != nil {
			return ferr
		}
		return &collectError{source: src, err: err}
	}

	valid := c.validate(src, listings)
	span.SetAttributes(
		attribute.Int("listings.collected", len(listings)),
		attribute.Int("listings.valid", len(valid)),
	)
	if len(valid) == 0 {
		category := "empty"
		if len(listings) > 0 {
			category = "invalid"
		}
		return c.recordFailure(ctx, src, category, nil)
	}

	if err := c.tracker.RecordSuccess(ctx, src); err != nil {
		return err
	}
	metrics.SourceConsecutiveFailures.WithLabelValues(src).Set(0)
	if err := c.touch(ctx, src); err != nil {
		return err
	}
	metrics.ListingsCollectedTotal.WithLabelValues(src).Add(float64(len(valid)))

	res, err := c.ledger.Reconcile(ctx, src, valid)
	if err != nil {
		span.RecordError(err)
		return err
	}

	c.log.Info("source reconciled",
		"source", src,
		"count", len(valid),
		"new", res.New,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
		"delisted", res.Delisted,
	)

	if res.FirstRun && !c.notifyFirstRun {
		c.log.Info("first run seeded without notifications", "source", src, "count", res.New)
		return nil
	}
	c.forward(ctx, src, res.Events)
	return nil
}

// recordFailure increments the source's counter and stamps the attempt.
// The ledger is not touched.
func (c *Controller) recordFailure(ctx context.Context, src, category string, cause error) error {
	n, err := c.tracker.RecordFailure(ctx, src)
	if err != nil {
		return err
	}
	if err := c.touch(ctx, src); err != nil {
		return err
	}

	metrics.SourceFailuresTotal.WithLabelValues(src, category).Inc()
	metrics.SourceConsecutiveFailures.WithLabelValues(src).Set(float64(n))

	attrs := []any{"source", src, "category", category, "consecutive_failures", n}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	c.log.Warn("source poll failed", attrs...)
	return nil
}

func (c *Controller) touch(ctx context.Context, src string) error {
	if err := c.store.TouchSync(ctx, src, c.now().UTC()); err != nil {
		return fmt.Errorf("stamping last attempt for %s: %w", src, err)
	}
	return nil
}

// validate drops listings that fail the schema or belong to another
// source, logging each.
func (c *Controller) validate(src string, listings []domain.Listing) []domain.Listing {
	valid := make([]domain.Listing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		err := l.Validate()
		if err == nil && l.SourceID != src {
			err = &domain.ValidationError{Invalid: []string{"source_id"}}
		}
		if err != nil {
			metrics.ListingsInvalidTotal.WithLabelValues(src).Inc()
			c.log.Warn("dropping invalid listing",
				"source", src,
				"url", l.DetailURL,
				"error", err,
			)
			continue
		}
		valid = append(valid, *l)
	}
	return valid
}

func (c *Controller) forward(ctx context.Context, src string, events []domain.ChangeEvent) {
	subs := c.router.Subscribers(src)
	for i := range events {
		ev := events[i]
		metrics.ChangeEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
		if len(subs) == 0 {
			continue
		}
		if err := c.dispatcher.Notify(ctx, ev, subs); err != nil {
			c.log.Error("notification failed",
				"source", src,
				"kind", ev.Kind,
				"url", ev.Listing.DetailURL,
				"error", err,
			)
		}
	}
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(sourceID string) []string

// Subscribers calls f(sourceID).
func (f RouterFunc) Subscribers(sourceID string) []string {
	return f(sourceID)
}
