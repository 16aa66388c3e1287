package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/ecoppen/amiibot/internal/api/client"
)

func triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Ask a running server to scrape now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			status, err := newClient().TriggerScrape(ctx)
			if errors.Is(err, apiclient.ErrCycleInProgress) {
				fmt.Println("A scrape is already running.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(status)
			return nil
		},
	}
}
