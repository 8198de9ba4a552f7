package compositor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"soundprint-mockup/models"
)

const (
	ThumbnailSmall  = "thumb"
	ThumbnailMedium = "medium"

	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// ThumbnailSpec returns the max dimension and JPEG quality for a size name.
// Unknown names fall back to medium; ok reports whether the name was recognized.
func ThumbnailSpec(size string) (maxDim, quality int, ok bool) {
	switch size {
	case ThumbnailSmall:
		return maxSizeThumb, qualityThumb, true
	case ThumbnailMedium:
		return maxSizeMedium, qualityMedium, true
	default:
		return maxSizeMedium, qualityMedium, false
	}
}

// Thumbnail downsizes an encoded mockup to fit size ("thumb" or "medium") and re-encodes it as JPEG.
// Images already within the bound are only re-encoded.
func Thumbnail(data []byte, size string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: thumbnail source: %v", models.ErrEncode, err)
	}

	maxDim, quality, _ := ThumbnailSpec(size)

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		// Zero on the shorter side keeps the aspect ratio
		if bounds.Dx() >= bounds.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	return Encode(img, models.FormatJPEG, quality)
}
