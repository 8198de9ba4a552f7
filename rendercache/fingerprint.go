package rendercache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"soundprint-mockup/models"
)

// fingerprintVersion changes whenever rendering output for the same inputs changes.
const fingerprintVersion = "v1"

// HashDesign returns the hex sha256 of the raw design bytes.
func HashDesign(design []byte) string {
	sum := sha256.Sum256(design)
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies a render by everything that affects its output bytes. Configs are
// expected to be resolved, so that an unset field and its explicit default hash the same.
func Fingerprint(templateID, designHash string, cfg models.ResolvedConfig, format models.OutputFormat, quality int) string {
	if format != models.FormatJPEG && format != models.FormatWebP {
		// Quality does not change lossless output
		quality = 0
	}
	if !cfg.TextureOverlay {
		cfg.TextureOpacity = 0
	}

	var b strings.Builder
	b.WriteString(fingerprintVersion)
	for _, field := range []string{
		strconv.Itoa(len(templateID)) + ":" + templateID,
		designHash,
		strconv.FormatFloat(cfg.Intensity, 'g', -1, 64),
		strconv.FormatFloat(cfg.Brightness, 'g', -1, 64),
		string(cfg.BlendMode),
		strconv.FormatBool(cfg.TextureOverlay),
		strconv.FormatFloat(cfg.TextureOpacity, 'g', -1, 64),
		string(format),
		strconv.Itoa(quality),
	} {
		b.WriteByte('|')
		b.WriteString(field)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
