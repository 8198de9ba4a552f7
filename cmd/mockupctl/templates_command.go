package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List catalog templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			a, err := ctx.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			templates, err := a.Catalog.FilterByCategory(cmd.Context(), cat)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(templates) == 0 {
				fmt.Fprintln(out, "No templates found")
				return nil
			}
			rows := make([][]string, 0, len(templates))
			for _, tpl := range templates {
				area := tpl.PrintArea
				rows = append(rows, []string{
					tpl.ID, string(tpl.ProductCategory), tpl.ColorTag, tpl.AngleTag,
					fmt.Sprintf("%.2f,%.2f %.2fx%.2f", area.X, area.Y, area.Width, area.Height),
				})
			}
			fmt.Fprintln(out, renderTable(out, []string{"ID", "Category", "Color", "Angle", "Print area"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "all", "Category filter")
	return cmd
}
