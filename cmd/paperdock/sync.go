package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation cycle and report the outcome",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer a.Close()

		a.RunCycle(cmd.Context())

		st := a.SyncState()
		r := st.LastResult
		fmt.Printf("pulled %d, tombstoned %d, drained %d, failed %d, conflicts %d\n",
			r.Pulled, r.Tombstoned, r.Drained, r.Failed, len(r.Conflicts))
		for _, c := range r.Conflicts {
			fmt.Printf("conflict: %s %d resolved with the server copy\n", c.EntityType, c.EntityID)
		}
		if st.LastError != "" {
			return fmt.Errorf("sync finished with errors: %s", st.LastError)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
