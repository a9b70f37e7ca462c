package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and outstanding local changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			st := a.SyncState()
			fmt.Printf("phase: %s\n", st.Phase)
			if !st.LastCycleAt.IsZero() {
				fmt.Printf("last cycle: %s\n", st.LastCycleAt.Format(time.RFC3339))
			}
			if st.LastError != "" {
				fmt.Printf("last error: %s\n", st.LastError)
			}

			n, err := a.PendingCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("pending changes: %d\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
