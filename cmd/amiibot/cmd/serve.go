package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ecoppen/amiibot/internal/api/handlers"
	mw "github.com/ecoppen/amiibot/internal/api/middleware"
	"github.com/ecoppen/amiibot/internal/config"
	"github.com/ecoppen/amiibot/internal/engine"
	"github.com/ecoppen/amiibot/internal/store"
	"github.com/ecoppen/amiibot/internal/tracing"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		Long: "Runs migrations, announces the tracked sources, polls every source on\n" +
			"the configured interval and serves the HTTP API until interrupted.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.Insecure,
		Version:  Version,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	p, err := buildPipeline(cfg, st, log, false)
	if err != nil {
		return err
	}

	heartbeat := time.Duration(0)
	if cfg.Heartbeat.IsEnabled() {
		heartbeat = cfg.Heartbeat.Interval
	}
	sched, err := engine.NewScheduler(p.retrier, st, p.dispatcher, cfg.Scrape.Interval, heartbeat, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	if err := p.dispatcher.Broadcast(ctx, engine.TrackingMessage(p.controller.Sources())); err != nil {
		log.Warn("startup announcement failed", "error", err)
	}

	e := newServer(cfg, st, p.controller.Sources(), p.retrier, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	sched.Start()
	go runInitialScrape(ctx, p.retrier, log)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutting down server", "error", err)
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduled jobs did not finish before shutdown timeout")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("flushing traces", "error", err)
	}

	log.Info("stopped")
	return nil
}

// runInitialScrape polls once at startup instead of waiting a full interval.
func runInitialScrape(ctx context.Context, r *engine.Retrier, log *slog.Logger) {
	err := r.Run(ctx)
	if err == nil || errors.Is(err, engine.ErrCycleInProgress) || errors.Is(err, context.Canceled) {
		return
	}
	log.Error("initial scrape failed", "error", err)
}

func newServer(
	cfg *config.Config,
	st store.Store,
	sources []string,
	scraper handlers.Scraper,
	log *slog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(mw.Recovery(log))
	e.Use(mw.RequestLog(log))
	e.Use(mw.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Amiibot API", Version))
	handlers.RegisterSourceRoutes(api, handlers.NewSourcesHandler(st, sources))
	handlers.RegisterStockRoutes(api, handlers.NewStockHandler(st))
	handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(st))
	handlers.RegisterTriggerRoutes(api, handlers.NewScrapeHandler(scraper))

	return e
}
