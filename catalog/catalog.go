package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/repository"
)

type snapshot struct {
	templates []models.Template
	byID      map[string]int
}

// Catalog indexes validated template metadata. It loads lazily on first use and is immutable
// afterwards; a failed load is retried by the next caller.
type Catalog struct {
	repo repository.TemplateRepositoryInterface
	log  *logger.Logger

	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// New creates a catalog backed by repo.
func New(repo repository.TemplateRepositoryInterface, log *logger.Logger) *Catalog {
	return &Catalog{
		repo: repo,
		log:  logger.OrNop(log).With("component", "TemplateCatalog"),
	}
}

// NewStatic builds an already-loaded catalog from in-memory templates, validating them the same way.
func NewStatic(templates []models.Template, log *logger.Logger) *Catalog {
	c := New(nil, log)
	c.snap.Store(c.index(templates))
	return c
}

// LoadAll returns every valid template in load order.
func (c *Catalog) LoadAll(ctx context.Context) ([]models.Template, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]models.Template(nil), snap.templates...), nil
}

// FilterByCategory returns the templates of one category, or all of them for CategoryAll,
// preserving catalog order.
func (c *Catalog) FilterByCategory(ctx context.Context, category models.ProductCategory) ([]models.Template, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTemplates(snap.templates, category), nil
}

// Get looks a template up by id.
func (c *Catalog) Get(ctx context.Context, id string) (models.Template, error) {
	snap, err := c.load(ctx)
	if err != nil {
		return models.Template{}, err
	}
	idx, ok := snap.byID[id]
	if !ok {
		return models.Template{}, fmt.Errorf("%w: %s", models.ErrTemplateNotFound, id)
	}
	return snap.templates[idx], nil
}

// Len returns the number of loaded templates, or 0 before the first load.
func (c *Catalog) Len() int {
	if snap := c.snap.Load(); snap != nil {
		return len(snap.templates)
	}
	return 0
}

// FilterTemplates is the pure category filter behind FilterByCategory.
func FilterTemplates(templates []models.Template, category models.ProductCategory) []models.Template {
	out := make([]models.Template, 0, len(templates))
	for _, tpl := range templates {
		if category == models.CategoryAll || tpl.ProductCategory == category {
			out = append(out, tpl)
		}
	}
	return out
}

func (c *Catalog) load(ctx context.Context) (*snapshot, error) {
	if snap := c.snap.Load(); snap != nil {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the lock
	if snap := c.snap.Load(); snap != nil {
		return snap, nil
	}
	if c.repo == nil {
		return nil, fmt.Errorf("%w: no template repository configured", models.ErrCatalogUnavailable)
	}

	raw, err := c.repo.LoadAll(ctx)
	if err != nil {
		c.log.Error("❌ Template catalog could not be loaded", "error", err)
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}

	snap := c.index(raw)
	c.snap.Store(snap)
	return snap, nil
}

func (c *Catalog) index(raw []models.Template) *snapshot {
	snap := &snapshot{
		templates: make([]models.Template, 0, len(raw)),
		byID:      make(map[string]int, len(raw)),
	}
	skipped := 0
	for _, tpl := range raw {
		if err := ValidateTemplate(tpl); err != nil {
			c.log.Warn("⚠️  Skipping invalid template", "templateId", tpl.ID, "error", err)
			skipped++
			continue
		}
		if _, dup := snap.byID[tpl.ID]; dup {
			c.log.Warn("⚠️  Skipping duplicate template id", "templateId", tpl.ID)
			skipped++
			continue
		}
		snap.byID[tpl.ID] = len(snap.templates)
		snap.templates = append(snap.templates, tpl)
	}
	c.log.Info("✓ Template catalog ready", "templates", len(snap.templates), "skipped", skipped)
	return snap
}
