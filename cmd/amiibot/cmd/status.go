package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/ecoppen/amiibot/internal/api/client"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

type statusReport struct {
	Stats   *domain.Stats         `json:"stats"`
	Sources []domain.SourceStatus `json:"sources"`
}

func statusCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-source poll and failure state",
		Long: "Prints the last attempt, consecutive failures, last failure and last\n" +
			"success of every source plus ledger totals. Reads the database directly,\n" +
			"or a running server with --remote.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var (
				report *statusReport
				err    error
			)
			if remote {
				report, err = remoteStatus(ctx)
			} else {
				report, err = localStatus(ctx)
			}
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(report)
			}
			if err := printStats(os.Stdout, report.Stats); err != nil {
				return err
			}
			fmt.Println()
			return printSourcesTable(os.Stdout, report.Sources)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "query the API server instead of the database")
	return cmd
}

func localStatus(ctx context.Context) (*statusReport, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	stats, err := st.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	sources, err := st.ListSourceStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source status: %w", err)
	}
	return &statusReport{Stats: stats, Sources: sources}, nil
}

func remoteStatus(ctx context.Context) (*statusReport, error) {
	c := newClient()

	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := c.Sources(ctx)
	if err != nil {
		return nil, err
	}
	return &statusReport{Stats: stats, Sources: sources}, nil
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}
