package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasov/paperdock/internal/client/app"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List cached tags, correspondents and document types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			ctx := cmd.Context()

			tags, err := a.Catalog.Tags(ctx)
			if err != nil {
				return err
			}
			fmt.Println("tags:")
			for _, t := range tags {
				marker := ""
				if t.IsInboxTag {
					marker = " (inbox)"
				}
				fmt.Printf("  %d\t%s%s\n", t.ID, t.Name, marker)
			}

			corrs, err := a.Catalog.Correspondents(ctx)
			if err != nil {
				return err
			}
			fmt.Println("correspondents:")
			for _, c := range corrs {
				fmt.Printf("  %d\t%s\n", c.ID, c.Name)
			}

			dtypes, err := a.Catalog.DocumentTypes(ctx)
			if err != nil {
				return err
			}
			fmt.Println("document types:")
			for _, d := range dtypes {
				fmt.Printf("  %d\t%s\n", d.ID, d.Name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
