package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ecoppen/amiibot/internal/store"
)

// Scheduler runs retry-wrapped scrape cycles and the optional heartbeat
// on fixed intervals.
type Scheduler struct {
	cron       *cron.Cron
	retrier    *Retrier
	store      store.Store
	dispatcher Dispatcher
	log        *slog.Logger
	started    time.Time

	ctx    context.Context
	cancel context.CancelFunc

	scrapeEntryID    cron.EntryID
	heartbeatEntryID cron.EntryID
}

// NewScheduler registers the scrape job every scrapeInterval and, when
// heartbeatInterval is positive, a heartbeat broadcast.
func NewScheduler(
	r *Retrier,
	s store.Store,
	d Dispatcher,
	scrapeInterval time.Duration,
	heartbeatInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	ctx, cancel := context.WithCancel(context.Background())
	sch := &Scheduler{
		cron:       c,
		retrier:    r,
		store:      s,
		dispatcher: d,
		log:        log,
		started:    time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}

	id, err := c.AddFunc("@every "+scrapeInterval.String(), sch.runScrape)
	if err != nil {
		cancel()
		return nil, err
	}
	sch.scrapeEntryID = id

	if heartbeatInterval > 0 {
		id, err := c.AddFunc("@every "+heartbeatInterval.String(), sch.runHeartbeat)
		if err != nil {
			cancel()
			return nil, err
		}
		sch.heartbeatEntryID = id
	}

	return sch, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop cancels in-flight jobs between sources and returns a context that
// is done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	s.cancel()
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextScrape returns the next scheduled scrape, zero before Start.
func (s *Scheduler) NextScrape() time.Time {
	return s.cron.Entry(s.scrapeEntryID).Next
}

func (s *Scheduler) runScrape() {
	s.log.Info("scheduled scrape starting")
	err := s.retrier.Run(s.ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleInProgress):
		s.log.Info("scheduled scrape skipped, cycle in progress")
	default:
		s.log.Error("scheduled scrape failed", "error", err)
	}
}

func (s *Scheduler) runHeartbeat() {
	msg, err := HeartbeatMessage(s.ctx, s.store, s.started, time.Now())
	if err != nil {
		s.log.Error("building heartbeat failed", "error", err)
		return
	}
	if err := s.dispatcher.Broadcast(s.ctx, msg); err != nil {
		s.log.Error("heartbeat broadcast failed", "error", err)
	}
}
