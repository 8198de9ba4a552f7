package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundprint-mockup/service"
)

func newDriveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Google Drive layer asset helpers",
	}
	cmd.AddCommand(newDrivePullCommand(ctx))
	return cmd
}

func newDrivePullCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <folder-id> <dest-dir>",
		Short: "Mirror the images of a Drive folder into a local asset directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if cfg.DriveCredsPath == "" {
				return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS must point at a service account key")
			}
			log, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			drive, err := service.NewDriveService(cmd.Context(), cfg.DriveCredsPath, log)
			if err != nil {
				return err
			}
			report, err := service.NewMirrorService(drive, log).MirrorFolder(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Files: %d  Downloaded: %d  Skipped: %d  Errors: %d\n",
				report.Total, report.Downloaded, report.Skipped, len(report.Errors))
			for _, e := range report.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d file(s) failed to download", len(report.Errors))
			}
			return nil
		},
	}
}
