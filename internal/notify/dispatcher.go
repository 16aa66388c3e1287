package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/ecoppen/amiibot/internal/metrics"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

// DefaultSendDelay is the pause between consecutive messenger sends.
const DefaultSendDelay = 500 * time.Millisecond

// Dispatcher fans events and messages out to named notifiers.
type Dispatcher struct {
	notifiers map[string]Notifier
	order     []string
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	log       *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSendDelay sets the pause between messenger sends.
func WithSendDelay(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.delay = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.log = l
	}
}

// NewDispatcher creates a Dispatcher over notifiers. Later notifiers with
// a duplicate name replace earlier ones.
func NewDispatcher(notifiers []Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifiers: make(map[string]Notifier, len(notifiers)),
		delay:     DefaultSendDelay,
		sleep:     sleepContext,
		log:       slog.Default(),
	}
	for _, n := range notifiers {
		if _, dup := d.notifiers[n.Name()]; !dup {
			d.order = append(d.order, n.Name())
		}
		d.notifiers[n.Name()] = n
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Names returns the notifier names in registration order.
func (d *Dispatcher) Names() []string {
	return slices.Clone(d.order)
}

// Notify delivers ev to each named subscriber. Unknown names are logged
// and skipped; delivery errors are joined.
func (d *Dispatcher) Notify(ctx context.Context, ev domain.ChangeEvent, subscribers []string) error {
	var errs []error
	sent := 0
	for _, name := range subscribers {
		n, ok := d.notifiers[name]
		if !ok {
			d.log.Warn("unknown subscriber", "messenger", name)
			continue
		}
		if sent > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				return err
			}
		}
		sent++

		if err := n.SendEvent(ctx, ev); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSentTotal.Inc()
		d.log.Debug("notification sent", "messenger", name, "kind", ev.Kind, "url", ev.Listing.DetailURL)
	}
	return errors.Join(errs...)
}

// Broadcast sends text to every notifier.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) error {
	var errs []error
	for i, name := range d.order {
		if i > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				return err
			}
		}
		if err := d.notifiers[name].SendMessage(ctx, text); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSentTotal.Inc()
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Router maps sources to the messengers subscribed to them.
type Router struct {
	all       []string
	bySource  map[string][]string
	wildcards []string
}

// NewRouter builds a Router from messenger name to subscribed source ids.
// A messenger with no sources receives every source.
func NewRouter(routes map[string][]string) *Router {
	r := &Router{bySource: make(map[string][]string)}
	for name, sources := range routes {
		r.all = append(r.all, name)
		if len(sources) == 0 {
			r.wildcards = append(r.wildcards, name)
			continue
		}
		for _, src := range sources {
			r.bySource[src] = append(r.bySource[src], name)
		}
	}
	sort.Strings(r.all)
	sort.Strings(r.wildcards)
	return r
}

// Subscribers returns the sorted messenger names routed to sourceID.
func (r *Router) Subscribers(sourceID string) []string {
	out := make([]string, 0, len(r.wildcards)+len(r.bySource[sourceID]))
	out = append(out, r.wildcards...)
	for _, name := range r.bySource[sourceID] {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Messengers returns every routed messenger name, sorted.
func (r *Router) Messengers() []string {
	return slices.Clone(r.all)
}
