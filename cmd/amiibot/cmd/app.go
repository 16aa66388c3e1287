package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/ecoppen/amiibot/internal/collector"
	"github.com/ecoppen/amiibot/internal/config"
	"github.com/ecoppen/amiibot/internal/engine"
	"github.com/ecoppen/amiibot/internal/notify"
	"github.com/ecoppen/amiibot/internal/store"
	"github.com/ecoppen/amiibot/pkg/logger"
)

// loadConfig reads the config file and builds the logger it describes.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Engine:   cfg.Database.Engine,
		DSN:      cfg.Database.DSN(),
		PoolSize: cfg.Database.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Engine, err)
	}
	return st, nil
}

// sourceSpec maps a configured source onto a collector spec.
func sourceSpec(s *config.SourceConfig) collector.Spec {
	return collector.Spec{
		ID:     s.ID,
		Name:   s.Name,
		Pages:  s.Pages,
		Params: s.Params,
		Selectors: collector.Selectors{
			Item:      s.Selectors.Item,
			Title:     s.Selectors.Title,
			Price:     s.Selectors.Price,
			Link:      s.Selectors.Link,
			Image:     s.Selectors.Image,
			ImageAttr: s.Selectors.ImageAttr,
		},
		Stock: collector.StockRule{
			Selector:       s.Selectors.Stock,
			InStockText:    s.InStockText,
			OutOfStockText: s.OutOfStockText,
			SkipOutOfStock: s.SkipOutOfStock,
		},
	}
}

// buildCollectors resolves every configured source. Unknown sources are
// logged and skipped; it fails only when none remain.
func buildCollectors(cfg *config.Config, log *slog.Logger) ([]collector.Collector, error) {
	transport := collector.NewRateLimitedTransport(
		http.DefaultTransport,
		cfg.Scrape.RateLimit.PerSecond,
		cfg.Scrape.RateLimit.Burst,
	)
	registry := collector.NewRegistry(
		collector.WithTransport(transport),
		collector.WithRequestTimeout(cfg.Scrape.RequestTimeout),
		collector.WithMaxRedirects(cfg.Scrape.MaxRedirects),
		collector.WithUserAgents(collector.NewUserAgents(cfg.Scrape.UserAgents)),
		collector.WithLogger(log),
	)

	collectors := make([]collector.Collector, 0, len(cfg.Sources))
	for i := range cfg.Sources {
		c, err := registry.Build(sourceSpec(&cfg.Sources[i]))
		if err != nil {
			log.Warn("skipping source", "source", cfg.Sources[i].ID, "error", err)
			continue
		}
		collectors = append(collectors, c)
	}

	if len(collectors) == 0 {
		return nil, errors.New("no usable sources configured")
	}
	return collectors, nil
}

// buildNotifiers creates one notifier per active messenger, in name
// order. With quiet set every messenger is replaced by a no-op.
func buildNotifiers(cfg *config.Config, log *slog.Logger, quiet bool) ([]notify.Notifier, error) {
	names := make([]string, 0, len(cfg.Messengers))
	for name, m := range cfg.Messengers {
		if m.Active {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	notifiers := make([]notify.Notifier, 0, len(names))
	for _, name := range names {
		m := cfg.Messengers[name]
		if quiet {
			notifiers = append(notifiers, notify.NewNoOpNotifier(name, log))
			continue
		}

		switch m.Type {
		case config.MessengerDiscord:
			notifiers = append(notifiers, notify.NewDiscordNotifier(name, m.WebhookURL))
		case config.MessengerTelegram:
			n, err := notify.NewTelegramNotifier(name, m.BotToken, m.ChatID)
			if err != nil {
				return nil, fmt.Errorf("creating telegram messenger %s: %w", name, err)
			}
			notifiers = append(notifiers, n)
		}
	}
	return notifiers, nil
}

// pipeline is the wired poll cycle.
type pipeline struct {
	controller *engine.Controller
	retrier    *engine.Retrier
	dispatcher *notify.Dispatcher
}

func buildPipeline(
	cfg *config.Config,
	st store.Store,
	log *slog.Logger,
	quiet bool,
) (*pipeline, error) {
	collectors, err := buildCollectors(cfg, log)
	if err != nil {
		return nil, err
	}

	notifiers, err := buildNotifiers(cfg, log, quiet)
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(notifiers, notify.WithLogger(log))
	router := notify.NewRouter(cfg.Routes())

	controller := engine.NewController(collectors, st, dispatcher, router,
		engine.WithLogger(log),
		engine.WithNotifyFirstRun(cfg.Scrape.ShouldNotifyFirstRun()),
	)
	retrier := engine.NewRetrier(controller,
		engine.WithMaxAttempts(cfg.Scrape.MaxRetryAttempts),
		engine.WithBackoffFactor(cfg.Scrape.RetryBackoffFactor),
		engine.WithRetryLogger(log),
	)

	return &pipeline{
		controller: controller,
		retrier:    retrier,
		dispatcher: dispatcher,
	}, nil
}
