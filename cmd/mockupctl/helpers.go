package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soundprint-mockup/models"
)

type renderFlags struct {
	format         string
	quality        int
	intensity      float64
	brightness     float64
	blendMode      string
	textureOverlay bool
	textureOpacity float64
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "png", "Output format: png, jpeg or webp")
	cmd.Flags().IntVar(&f.quality, "quality", models.DefaultQuality, "Lossy output quality (1-100)")
	cmd.Flags().Float64Var(&f.intensity, "intensity", models.DefaultIntensity, "Displacement intensity in pixels (0-20)")
	cmd.Flags().Float64Var(&f.brightness, "brightness", models.DefaultBrightness, "Design brightness multiplier (0-2)")
	cmd.Flags().StringVar(&f.blendMode, "blend", string(models.BlendMultiply), "Blend mode: normal, multiply, overlay or screen")
	cmd.Flags().BoolVar(&f.textureOverlay, "texture", false, "Overlay the fabric grain")
	cmd.Flags().Float64Var(&f.textureOpacity, "texture-opacity", models.DefaultTextureOpacity, "Texture overlay opacity (0-1)")
}

func (f *renderFlags) config() models.RenderConfig {
	intensity, brightness, opacity := f.intensity, f.brightness, f.textureOpacity
	return models.RenderConfig{
		Intensity:      &intensity,
		Brightness:     &brightness,
		BlendMode:      models.BlendMode(strings.ToLower(f.blendMode)),
		TextureOverlay: f.textureOverlay,
		TextureOpacity: &opacity,
	}
}

func (f *renderFlags) outputFormat() (models.OutputFormat, error) {
	format, ok := models.ParseOutputFormat(f.format)
	if !ok {
		return "", fmt.Errorf("unknown format %q (expected png, jpeg or webp)", f.format)
	}
	return format, nil
}

func readDesign(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read design: %w", err)
	}
	return data, nil
}

func parseCategory(raw string) (models.ProductCategory, error) {
	category, ok := models.ParseCategoryFilter(raw)
	if !ok {
		return "", fmt.Errorf("unknown category %q (expected all, wall-art, apparel, drinkware or other)", raw)
	}
	return category, nil
}
