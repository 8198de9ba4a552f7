package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "mockupctl",
		Short:         "Render and inspect product mockups offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.templateDir, "templates", "", "Template manifest directory (overrides TEMPLATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&flags.assetRoot, "assets", "", "Layer asset root (overrides ASSET_ROOT)")
	rootCmd.PersistentFlags().StringVar(&flags.logMode, "log-mode", "", "Logger mode: development or production")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only log warnings and errors")

	rootCmd.AddCommand(newTemplatesCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newPregenCommand(ctx))
	rootCmd.AddCommand(newDriveCommand(ctx))

	return rootCmd
}
