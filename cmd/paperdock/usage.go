package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show this month's AI usage and limit tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			ctx := cmd.Context()

			status, err := a.Usage.CheckUsageLimit(ctx)
			if err != nil {
				return err
			}
			remaining, err := a.Usage.RemainingCalls(ctx)
			if err != nil {
				return err
			}
			pct, err := a.Usage.LimitUsagePercentage(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("tier: %s\n", status)
			fmt.Printf("remaining calls: %d\n", remaining)
			fmt.Printf("budget used: %.1f%%\n", pct)
			return nil
		})
	},
}

var usageCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge usage-ledger rows past the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Usage.CleanupOldLogs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("purged %d rows\n", n)
			return nil
		})
	},
}

func init() {
	usageCmd.AddCommand(usageCleanupCmd)
	rootCmd.AddCommand(usageCmd)
}
