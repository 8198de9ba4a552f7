package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Decode every template's layers and report broken templates",
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
			report, err := a.WarmupService.WarmLayers(cmd.Context(), cat)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Templates: %d  Resolved: %d  Failed: %d  (%dms)\n",
				report.Total, report.Resolved, len(report.Failures), report.ElapsedMs)
			if len(report.Failures) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(report.Failures))
			for _, f := range report.Failures {
				rows = append(rows, []string{f.TemplateID, f.Reason, f.Message})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Template", "Reason", "Message"}, rows))
			return fmt.Errorf("%d template(s) failed validation", len(report.Failures))
		},
	}

	cmd.Flags().StringVar(&category, "category", "all", "Category filter")
	return cmd
}
