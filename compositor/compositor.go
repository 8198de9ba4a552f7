package compositor

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"soundprint-mockup/layers"
	"soundprint-mockup/models"
)

const (
	DefaultShadowOpacity    = 0.35
	DefaultHighlightOpacity = 0.25
	// DefaultDisplacementScale maps full-range luminance (0 or 255) to ±intensity pixels.
	DefaultDisplacementScale = 1.0
)

// Compositor renders a flat design onto a template's decoded layers. It holds only tunable
// constants and is safe for concurrent use.
type Compositor struct {
	ShadowOpacity     float32
	HighlightOpacity  float32
	DisplacementScale float64
}

// New returns a compositor with the default blend constants.
func New() *Compositor {
	return &Compositor{
		ShadowOpacity:     DefaultShadowOpacity,
		HighlightOpacity:  DefaultHighlightOpacity,
		DisplacementScale: DefaultDisplacementScale,
	}
}

// Render composites design onto set for tpl. The output has the base photo's dimensions, and
// pixels outside the print area are left exactly as the base.
func (c *Compositor) Render(set *layers.DecodedLayerSet, tpl models.Template, design image.Image, cfg models.ResolvedConfig) (*image.NRGBA, error) {
	if set == nil || set.Base == nil || set.Displacement == nil {
		return nil, fmt.Errorf("%w: template %s has no decoded base/displacement", models.ErrTemplateAsset, tpl.ID)
	}
	if design == nil {
		return nil, fmt.Errorf("%w: no design image", models.ErrDesignDecode)
	}

	bw, bh := set.Width(), set.Height()
	db := design.Bounds()
	placement, err := ComputePlacement(tpl.PrintArea, bw, bh, db.Dx(), db.Dy())
	if err != nil {
		return nil, err
	}

	scaled := scaleDesign(design, placement.Rect.Dx(), placement.Rect.Dy())
	out := imaging.Clone(set.Base)

	c.composite(out, set, scaled, placement, cfg)
	return out, nil
}

func scaleDesign(design image.Image, w, h int) *image.NRGBA {
	b := design.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(design)
	}
	return imaging.Resize(design, w, h, imaging.Lanczos)
}

func (c *Compositor) composite(out *image.NRGBA, set *layers.DecodedLayerSet, design *image.NRGBA, p Placement, cfg models.ResolvedConfig) {
	texture := set.Texture
	if texture == nil {
		texture = set.Displacement
	}

	intensity := cfg.Intensity * c.DisplacementScale
	brightness := float32(cfg.Brightness)
	textureOpacity := float32(cfg.TextureOpacity)
	disp := set.Displacement
	rect := p.Rect

	for y := p.Area.Min.Y; y < p.Area.Max.Y; y++ {
		for x := p.Area.Min.X; x < p.Area.Max.X; x++ {
			// Mid-gray is zero offset; the same offset applies to both axes.
			lum := disp.Pix[y*disp.Stride+x]
			off := int(math.Round((float64(lum) - 128) / 128 * intensity))
			sx, sy := x+off, y+off
			if sx < rect.Min.X || sx >= rect.Max.X || sy < rect.Min.Y || sy >= rect.Max.Y {
				continue
			}

			di := (sy-rect.Min.Y)*design.Stride + (sx-rect.Min.X)*4
			alpha := float32(design.Pix[di+3]) / 255
			if set.Mask != nil {
				alpha *= float32(set.Mask.Pix[y*set.Mask.Stride+x]) / 255
			}
			if alpha == 0 {
				continue
			}

			var shade, light, grain float32 = 1, 0, 0
			hasLight := set.Highlight != nil
			if set.Shadow != nil {
				shade = 1 - c.ShadowOpacity*(1-float32(set.Shadow.Pix[y*set.Shadow.Stride+x])/255)
			}
			if set.Highlight != nil {
				light = float32(set.Highlight.Pix[y*set.Highlight.Stride+x]) / 255
			}
			if cfg.TextureOverlay {
				grain = float32(texture.Pix[y*texture.Stride+x]) / 255
			}

			oi := y*out.Stride + x*4
			// Straight-alpha source-over; a transparent base contributes no colour.
			ba := float32(out.Pix[oi+3]) / 255
			oa := alpha + ba*(1-alpha)
			for ch := 0; ch < 3; ch++ {
				b := float32(out.Pix[oi+ch]) / 255
				s := clamp01(float32(design.Pix[di+ch]) / 255 * brightness)
				s *= shade

				v := mix(s, blendChannel(cfg.BlendMode, b, s), ba)
				if hasLight {
					v = mix(v, screen(v, light), c.HighlightOpacity)
				}
				if cfg.TextureOverlay && textureOpacity > 0 {
					v = mix(v, overlay(v, grain), textureOpacity)
				}
				out.Pix[oi+ch] = toByte((v*alpha + b*ba*(1-alpha)) / oa)
			}
			out.Pix[oi+3] = toByte(oa)
		}
	}
}
