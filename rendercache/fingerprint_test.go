package rendercache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soundprint-mockup/models"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	design := HashDesign([]byte("design"))
	defaults := models.RenderConfig{}.Resolve()
	base := Fingerprint("poster", design, defaults, models.FormatJPEG, 90)

	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint("poster", design, defaults, models.FormatJPEG, 90), "stable")

	explicit := models.RenderConfig{
		Intensity:  models.Float64(models.DefaultIntensity),
		Brightness: models.Float64(models.DefaultBrightness),
		BlendMode:  models.BlendNormal,
	}.Resolve()
	assert.Equal(t, base, Fingerprint("poster", design, explicit, models.FormatJPEG, 90), "defaults hash like explicit values")

	differs := map[string]string{
		"template":  Fingerprint("tee", design, defaults, models.FormatJPEG, 90),
		"design":    Fingerprint("poster", HashDesign([]byte("other")), defaults, models.FormatJPEG, 90),
		"config":    Fingerprint("poster", design, models.RenderConfig{Intensity: models.Float64(3)}.Resolve(), models.FormatJPEG, 90),
		"format":    Fingerprint("poster", design, defaults, models.FormatWebP, 90),
		"quality":   Fingerprint("poster", design, defaults, models.FormatJPEG, 80),
		"blendMode": Fingerprint("poster", design, models.RenderConfig{BlendMode: models.BlendMultiply}.Resolve(), models.FormatJPEG, 90),
	}
	for name, fp := range differs {
		assert.NotEqual(t, base, fp, name)
	}
}

func TestFingerprintIgnoresQualityForPNG(t *testing.T) {
	t.Parallel()

	design := HashDesign([]byte("design"))
	cfg := models.RenderConfig{}.Resolve()
	assert.Equal(t,
		Fingerprint("poster", design, cfg, models.FormatPNG, 10),
		Fingerprint("poster", design, cfg, models.FormatPNG, 95))
}
