package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func scrapeCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one poll cycle and exit",
		Long: "Polls every configured source once with retries, reconciles the ledger\n" +
			"and sends notifications. With --quiet notifications are only logged.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			p, err := buildPipeline(cfg, st, log, quiet)
			if err != nil {
				return err
			}

			if err := p.retrier.Run(ctx); err != nil {
				return fmt.Errorf("scraping: %w", err)
			}

			fmt.Printf("Scraped %d sources.\n", len(p.controller.Sources()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "log notifications instead of sending them")
	return cmd
}
