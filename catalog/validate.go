package catalog

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"

	"soundprint-mockup/models"
)

// printAreaEpsilon absorbs float noise in authored coordinates (0.1+0.9 != 1.0).
const printAreaEpsilon = 1e-6

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTemplate checks a template's metadata: required fields, category, normalized print area
// contained in [0,1], and layer refs that an asset source can address.
func ValidateTemplate(tpl models.Template) error {
	if err := validate.Struct(tpl); err != nil {
		return fmt.Errorf("invalid template %q: %w", tpl.ID, err)
	}

	pa := tpl.PrintArea
	if pa.X+pa.Width > 1+printAreaEpsilon {
		return fmt.Errorf("invalid template %q: print area exceeds right edge (x=%.4f width=%.4f)", tpl.ID, pa.X, pa.Width)
	}
	if pa.Y+pa.Height > 1+printAreaEpsilon {
		return fmt.Errorf("invalid template %q: print area exceeds bottom edge (y=%.4f height=%.4f)", tpl.ID, pa.Y, pa.Height)
	}

	refs := map[string]string{
		"base":         tpl.LayerRefs.Base,
		"displacement": tpl.LayerRefs.Displacement,
		"mask":         tpl.LayerRefs.Mask,
		"shadow":       tpl.LayerRefs.Shadow,
		"highlight":    tpl.LayerRefs.Highlight,
		"texture":      tpl.LayerRefs.Texture,
	}
	for name, ref := range refs {
		if ref == "" {
			continue
		}
		if err := checkRef(ref); err != nil {
			return fmt.Errorf("invalid template %q: %s layer: %w", tpl.ID, name, err)
		}
	}
	return nil
}

func checkRef(ref string) error {
	if strings.TrimSpace(ref) != ref {
		return fmt.Errorf("ref %q has surrounding whitespace", ref)
	}
	if scheme, rest, ok := strings.Cut(ref, "://"); ok {
		if scheme != "drive" {
			return fmt.Errorf("unsupported ref scheme %q", scheme)
		}
		if rest == "" {
			return fmt.Errorf("drive ref without file id")
		}
		return nil
	}
	if path.IsAbs(ref) {
		return nil
	}
	if cleaned := path.Clean(ref); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("ref %q escapes the asset root", ref)
	}
	return nil
}
