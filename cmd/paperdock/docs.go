package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
	"github.com/avlasov/paperdock/internal/client/models"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Work with cached documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			docs, err := a.Documents.List(cmd.Context())
			if err != nil {
				return err
			}
			if docsJSON {
				return json.NewEncoder(os.Stdout).Encode(docs)
			}
			for _, d := range docs {
				fmt.Printf("%d\t%s\t%s\n", d.ID, d.Title, d.OriginalFileName)
			}
			return nil
		})
	},
}

var docsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one cached document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad document id %q", args[0])
		}
		return withApp(cmd, func(a *app.App) error {
			d, err := a.Documents.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		})
	},
}

var docsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Queue the creation of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			localID, err := a.Documents.Add(cmd.Context(), models.Document{Title: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("queued as %s\n", localID)
			return nil
		})
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Queue the deletion of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad document id %q", args[0])
		}
		return withApp(cmd, func(a *app.App) error {
			return a.Documents.Delete(cmd.Context(), id)
		})
	},
}

// withApp assembles the App, runs fn and closes everything afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func init() {
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsCmd.AddCommand(docsListCmd, docsGetCmd, docsAddCmd, docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}
