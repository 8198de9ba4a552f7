package compositor

import (
	"fmt"
	"image"
	"math"

	"soundprint-mockup/models"
)

// Placement is where a design lands on the base photo, in base pixel coordinates.
type Placement struct {
	// Area is the print area in pixels.
	Area image.Rectangle
	// Rect is the scaled design, centred in Area and never larger than it.
	Rect image.Rectangle
	// Scale is the uniform factor applied to both design axes.
	Scale float64
}

// PrintAreaPixels converts a normalized print area to a pixel rectangle clipped to the base.
func PrintAreaPixels(area models.PrintArea, baseW, baseH int) (image.Rectangle, error) {
	x0 := int(math.Round(area.X * float64(baseW)))
	y0 := int(math.Round(area.Y * float64(baseH)))
	x1 := int(math.Round((area.X + area.Width) * float64(baseW)))
	y1 := int(math.Round((area.Y + area.Height) * float64(baseH)))

	r := image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, baseW, baseH))
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %+v resolves to %dx%d pixels on a %dx%d base",
			models.ErrInvalidPrintArea, area, r.Dx(), r.Dy(), baseW, baseH)
	}
	return r, nil
}

// ComputePlacement fits a designW×designH design inside the print area, preserving its aspect
// ratio and letterboxing the remainder. The design is never cropped.
func ComputePlacement(area models.PrintArea, baseW, baseH, designW, designH int) (Placement, error) {
	if designW <= 0 || designH <= 0 {
		return Placement{}, fmt.Errorf("%w: design has zero dimensions", models.ErrDesignDecode)
	}
	px, err := PrintAreaPixels(area, baseW, baseH)
	if err != nil {
		return Placement{}, err
	}

	aw, ah := px.Dx(), px.Dy()
	scale := math.Min(float64(aw)/float64(designW), float64(ah)/float64(designH))

	w := clampInt(int(math.Round(float64(designW)*scale)), 1, aw)
	h := clampInt(int(math.Round(float64(designH)*scale)), 1, ah)

	origin := image.Pt(px.Min.X+(aw-w)/2, px.Min.Y+(ah-h)/2)
	return Placement{
		Area:  px,
		Rect:  image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))},
		Scale: scale,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
