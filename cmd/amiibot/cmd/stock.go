package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func stockCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "List the current ledger of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			records, total, err := newClient().Stock(ctx, source)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(records)
			}
			if err := printStockTable(os.Stdout, records); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d listings shown.\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "only show listings of this source")
	return cmd
}
