package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// TemplateFileRepository reads template manifests (.json, .toml, .yaml) from a directory tree.
// Relative layer refs are resolved against the manifest's own directory, so the returned refs
// are relative to the repository root.
type TemplateFileRepository struct {
	root string
	log  *logger.Logger
}

// NewTemplateFileRepository creates a repository rooted at dir.
func NewTemplateFileRepository(dir string, log *logger.Logger) *TemplateFileRepository {
	return &TemplateFileRepository{
		root: dir,
		log:  logger.OrNop(log).With("repository", "TemplateFileRepository"),
	}
}

// Ensure TemplateFileRepository implements TemplateRepositoryInterface
var _ TemplateRepositoryInterface = (*TemplateFileRepository)(nil)

type tomlManifest struct {
	Templates []map[string]any `toml:"templates"`
}

// LoadAll walks the root and decodes every manifest, in lexical path order.
func (r *TemplateFileRepository) LoadAll(ctx context.Context) ([]models.Template, error) {
	info, err := os.Stat(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", models.ErrCatalogUnavailable, r.root)
	}

	var manifests []string
	err = filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".toml", ".yaml", ".yml":
			manifests = append(manifests, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}
	sort.Strings(manifests)

	var templates []models.Template
	for _, p := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			r.log.Warn("⚠️  Skipping unreadable template manifest", "path", p, "error", err)
			continue
		}
		decoded, skipped, err := decodeManifest(filepath.Ext(p), data)
		if err != nil {
			r.log.Warn("⚠️  Skipping malformed template manifest", "path", p, "error", err)
			continue
		}
		for _, entryErr := range skipped {
			r.log.Warn("⚠️  Skipping malformed template entry", "path", p, "error", entryErr)
		}

		relDir, err := filepath.Rel(r.root, filepath.Dir(p))
		if err != nil {
			relDir = "."
		}
		for i := range decoded {
			rebaseLayerRefs(&decoded[i].LayerRefs, filepath.ToSlash(relDir))
		}
		templates = append(templates, decoded...)
	}

	r.log.Info("✓ Template manifests loaded", "root", r.root, "files", len(manifests), "templates", len(templates))
	return templates, nil
}

// decodeManifest decodes a single-record or list manifest. In a list, each entry is decoded on
// its own: entries that fail are reported in skipped and the rest are kept. err is set only when
// the file as a whole cannot be parsed.
func decodeManifest(ext string, data []byte) (templates []models.Template, skipped []error, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty manifest")
	}

	switch strings.ToLower(ext) {
	case ".json":
		if data[0] == '[' {
			var entries []json.RawMessage
			if err := json.Unmarshal(data, &entries); err != nil {
				return nil, nil, err
			}
			for i, entry := range entries {
				var tpl models.Template
				if err := json.Unmarshal(entry, &tpl); err != nil {
					skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
					continue
				}
				templates = append(templates, tpl)
			}
			return templates, skipped, nil
		}
		var one models.Template
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, nil, err
		}
		return []models.Template{one}, nil, nil

	case ".toml":
		var wrapped tomlManifest
		if err := toml.Unmarshal(data, &wrapped); err != nil {
			return nil, nil, err
		}
		if len(wrapped.Templates) > 0 {
			for i, entry := range wrapped.Templates {
				tpl, err := decodeTOMLEntry(entry)
				if err != nil {
					skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
					continue
				}
				templates = append(templates, tpl)
			}
			return templates, skipped, nil
		}
		var one models.Template
		if err := toml.Unmarshal(data, &one); err != nil {
			return nil, nil, err
		}
		return []models.Template{one}, nil, nil

	default:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			for i, entry := range node.Content[0].Content {
				var tpl models.Template
				if err := entry.Decode(&tpl); err != nil {
					skipped = append(skipped, fmt.Errorf("entry %d (line %d): %w", i, entry.Line, err))
					continue
				}
				templates = append(templates, tpl)
			}
			return templates, skipped, nil
		}
		var one models.Template
		if err := node.Decode(&one); err != nil {
			return nil, nil, err
		}
		return []models.Template{one}, nil, nil
	}
}

// decodeTOMLEntry re-encodes one generic [[templates]] table and decodes it into a Template.
func decodeTOMLEntry(entry map[string]any) (models.Template, error) {
	raw, err := toml.Marshal(entry)
	if err != nil {
		return models.Template{}, err
	}
	var tpl models.Template
	if err := toml.Unmarshal(raw, &tpl); err != nil {
		return models.Template{}, err
	}
	return tpl, nil
}

func rebaseLayerRefs(refs *models.LayerRefs, dir string) {
	for _, ref := range []*string{&refs.Base, &refs.Displacement, &refs.Mask, &refs.Shadow, &refs.Highlight, &refs.Texture} {
		*ref = rebaseRef(*ref, dir)
	}
}

func rebaseRef(ref, dir string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") || path.IsAbs(ref) || filepath.IsAbs(ref) {
		return ref
	}
	if dir == "" || dir == "." {
		return path.Clean(ref)
	}
	return path.Join(dir, ref)
}
