package layers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// aspectTolerance is how far an auxiliary layer's aspect ratio may drift from the base photo's
// before it is rejected instead of resampled.
const aspectTolerance = 0.01

// Neutral backgrounds that transparent auxiliary pixels flatten onto, so that a transparent
// region has no effect in the layer's blend.
const (
	neutralMask         = 0   // transparent mask hides the design
	neutralDisplacement = 128 // mid-gray is zero offset
	neutralShadow       = 255 // multiply identity
	neutralHighlight    = 0   // screen identity
	neutralTexture      = 128 // overlay identity
)

func decodeRaster(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("image has zero dimensions")
	}
	return img, format, nil
}

// toNRGBA returns img as a zero-origin NRGBA buffer.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// toLuminance flattens img over a gray background and reduces it to 8-bit luminance (Rec. 601).
func toLuminance(img image.Image, background uint8) *image.Gray {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	bg := uint32(background)

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			r, g, b, a := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2]), uint32(row[x*4+3])
			lum := (299*r + 587*g + 114*b + 500) / 1000
			if a != 255 {
				lum = (lum*a + bg*(255-a) + 127) / 255
			}
			out[x] = uint8(lum)
		}
	}
	return dst
}

// fitToBase resamples an auxiliary layer to the base dimensions when their aspect ratios agree.
func fitToBase(layer *image.Gray, baseW, baseH int) (*image.Gray, error) {
	w, h := layer.Rect.Dx(), layer.Rect.Dy()
	if w == baseW && h == baseH {
		return layer, nil
	}

	baseAspect := float64(baseW) / float64(baseH)
	aspect := float64(w) / float64(h)
	if math.Abs(aspect-baseAspect)/baseAspect > aspectTolerance {
		return nil, fmt.Errorf("dimensions %dx%d cannot be resampled to %dx%d (aspect %.4f vs %.4f)",
			w, h, baseW, baseH, aspect, baseAspect)
	}

	dst := image.NewGray(image.Rect(0, 0, baseW, baseH))
	draw.BiLinear.Scale(dst, dst.Bounds(), layer, layer.Bounds(), draw.Src, nil)
	return dst, nil
}
