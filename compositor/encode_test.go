package compositor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"

	"soundprint-mockup/models"
	"soundprint-mockup/testutil"
)

func TestEncodeFormats(t *testing.T) {
	t.Parallel()

	img := testutil.Solid(32, 24, color.NRGBA{R: 10, G: 200, B: 90, A: 255})

	tests := []struct {
		format     models.OutputFormat
		wantFormat string
	}{
		{format: models.FormatPNG, wantFormat: "png"},
		{format: models.FormatJPEG, wantFormat: "jpeg"},
		{format: models.FormatWebP, wantFormat: "webp"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			data, err := Encode(img, tt.format, 80)
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, 32, cfg.Width)
			assert.Equal(t, 24, cfg.Height)
		})
	}
}

func TestEncodeJPEGQualityAffectsSize(t *testing.T) {
	t.Parallel()

	img := gradient(128, 128)
	low, err := Encode(img, models.FormatJPEG, 10)
	require.NoError(t, err)
	high, err := Encode(img, models.FormatJPEG, 100)
	require.NoError(t, err)
	assert.Less(t, len(low), len(high))
}

func TestDecodeDesign(t *testing.T) {
	t.Parallel()

	valid := testutil.PNG(t, testutil.Solid(10, 5, red))

	img, err := DecodeDesign(valid, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	tests := []struct {
		name     string
		data     []byte
		maxBytes int64
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("definitely not an image")},
		{name: "truncated", data: valid[:len(valid)/2]},
		{name: "over size limit", data: valid, maxBytes: int64(len(valid) - 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDesign(tt.data, tt.maxBytes)
			assert.ErrorIs(t, err, models.ErrDesignDecode)
		})
	}
}
