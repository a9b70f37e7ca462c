package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the client with its background loops",
	Long: `Starts the periodic sync, the connectivity watcher, the maintenance sweeps
and, when an inbox directory is configured, the scan-inbox watcher. Blocks
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
