package utils

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// LayerNames are the layer kinds a template can reference.
var LayerNames = []string{"base", "displacement", "mask", "shadow", "highlight", "texture"}

var (
	layerExtRegex  = regexp.MustCompile(`\.(png|jpg|jpeg|webp)$`)
	templateIDExpr = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// LayerFile is a layer image named after its template.
type LayerFile struct {
	TemplateID string
	Layer      string
	Ext        string
}

// Path is where the layer lives under an asset root: <templateId>/<layer><ext>.
func (f *LayerFile) Path() string {
	return path.Join(f.TemplateID, f.Layer+f.Ext)
}

// ParseLayerFileName parses a filename following the pattern:
// TEMPLATEID__LAYER.EXT
// Example: tee-black-front__displacement.png
func ParseLayerFileName(filename string) (*LayerFile, error) {
	lower := strings.ToLower(strings.TrimSpace(filename))
	ext := layerExtRegex.FindString(lower)
	if ext == "" {
		return nil, fmt.Errorf("invalid layer file %q: expected a .png, .jpg, .jpeg or .webp extension", filename)
	}
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	nameWithoutExt := layerExtRegex.ReplaceAllString(lower, "")

	// Split on the last double underscore; template ids may contain single underscores
	sep := strings.LastIndex(nameWithoutExt, "__")
	if sep <= 0 {
		return nil, fmt.Errorf("invalid layer file %q: expected TEMPLATEID__LAYER", filename)
	}
	templateID, layer := nameWithoutExt[:sep], nameWithoutExt[sep+2:]

	if !templateIDExpr.MatchString(templateID) {
		return nil, fmt.Errorf("invalid template id %q in %q", templateID, filename)
	}
	if !isLayerName(layer) {
		return nil, fmt.Errorf("invalid layer %q in %q: expected one of %s", layer, filename, strings.Join(LayerNames, ", "))
	}

	return &LayerFile{TemplateID: templateID, Layer: layer, Ext: ext}, nil
}

func isLayerName(s string) bool {
	for _, name := range LayerNames {
		if s == name {
			return true
		}
	}
	return false
}
