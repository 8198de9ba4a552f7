package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundprint-mockup/models"
	"soundprint-mockup/storage"
	"soundprint-mockup/utils"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		size   string
		render renderFlags
	)

	cmd := &cobra.Command{
		Use:   "preview <template-id> <design-file>",
		Short: "Render one template and write the image to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.outputFormat()
			if err != nil {
				return err
			}
			design, err := readDesign(args[1])
			if err != nil {
				return err
			}
			a, err := ctx.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			res, err := a.MockupService.Preview(cmd.Context(), models.PreviewRequest{
				TemplateID:    args[0],
				Design:        design,
				Config:        render.config(),
				OutputFormat:  string(format),
				OutputQuality: render.quality,
				Size:          size,
			})
			if err != nil {
				return fmt.Errorf("render %s: %w", args[0], err)
			}

			if output == "" {
				output = res.TemplateID + utils.ExtensionForFormat(string(res.OutputFormat))
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(output, res.OutputBytes, 0644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %dms)\n", output, humanize.IBytes(uint64(len(res.OutputBytes))), res.RenderTimeMs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <template-id>.<ext>)")
	cmd.Flags().StringVar(&size, "size", "", "Write a JPEG thumbnail instead: thumb or medium")
	render.register(cmd)
	return cmd
}

func newPregenCommand(ctx *commandContext) *cobra.Command {
	var (
		category string
		outDir   string
		render   renderFlags
	)

	cmd := &cobra.Command{
		Use:   "pregen <design-file>",
		Short: "Render a design across every template of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			format, err := render.outputFormat()
			if err != nil {
				return err
			}
			design, err := readDesign(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			log, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			sink, err := storage.NewLocalUploader(outDir, "", log)
			if err != nil {
				return err
			}

			res, err := a.Generator.GenerateAll(cmd.Context(), models.BatchJob{
				Design:         design,
				CategoryFilter: cat,
				Config:         render.config(),
				OutputFormat:   format,
				OutputQuality:  render.quality,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(res.Items))
			for _, item := range res.Items {
				if item.Failure != nil {
					rows = append(rows, []string{item.TemplateID, item.Failure.Reason, "-", item.Failure.Message})
					continue
				}
				format := string(item.Result.OutputFormat)
				elapsed := fmt.Sprintf("%dms", item.Result.RenderTimeMs)
				key := item.TemplateID + utils.ExtensionForFormat(format)
				location, err := sink.Upload(cmd.Context(), key, item.Result.OutputBytes, utils.ContentTypeForFormat(format))
				if err != nil {
					rows = append(rows, []string{item.TemplateID, models.ReasonUpload, elapsed, err.Error()})
					continue
				}
				status := "generated"
				if item.Result.FromCache {
					status = "cached"
				}
				rows = append(rows, []string{item.TemplateID, status, elapsed, location})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Template", "Status", "Time", "Output"}, rows, 2))

			stats := res.Stats
			fmt.Fprintf(out, "\nBatch %s: %d total, %d generated, %d cached, %d failed, wall %dms\n",
				res.BatchID, stats.Total, stats.GeneratedCount, stats.CachedCount, stats.FailedCount, stats.WallTimeMs)
			if stats.Total > 0 && stats.FailedCount == stats.Total {
				return fmt.Errorf("every template failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "all", "Category filter")
	cmd.Flags().StringVar(&outDir, "out", "mockups", "Directory the rendered mockups are written to")
	render.register(cmd)
	return cmd
}
