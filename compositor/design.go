package compositor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"soundprint-mockup/models"
)

// MaxDesignPixels rejects designs whose header claims more pixels than we are willing to
// allocate, before decoding them.
const MaxDesignPixels = 100_000_000

// DecodeDesign decodes a raster design (PNG, JPEG or WebP). maxBytes <= 0 disables the size guard.
func DecodeDesign(data []byte, maxBytes int64) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty design", models.ErrDesignDecode)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: design is %d bytes, limit is %d", models.ErrDesignDecode, len(data), maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDesignDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: design has zero dimensions", models.ErrDesignDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDesignPixels {
		return nil, fmt.Errorf("%w: design is %dx%d, too many pixels", models.ErrDesignDecode, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDesignDecode, err)
	}
	return img, nil
}
