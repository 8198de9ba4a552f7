package compositor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"soundprint-mockup/models"
)

// Encode serializes img. Quality applies to JPEG and WebP and is ignored for PNG.
func Encode(img image.Image, format models.OutputFormat, quality int) ([]byte, error) {
	quality = models.ClampQuality(quality)

	var buf bytes.Buffer
	var err error
	switch format {
	case models.FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case models.FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEncode, format, err)
	}
	return buf.Bytes(), nil
}
