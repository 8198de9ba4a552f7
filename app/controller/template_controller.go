package controller

import (
	"fmt"
	"net/http"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/service"
)

// TemplateController handles HTTP requests for the template catalog
type TemplateController struct {
	mockupService service.MockupServiceInterface
	warmupService service.WarmupServiceInterface
	log           *logger.Logger
}

// NewTemplateController creates a new TemplateController
func NewTemplateController(mockupService service.MockupServiceInterface, warmupService service.WarmupServiceInterface, log *logger.Logger) *TemplateController {
	return &TemplateController{
		mockupService: mockupService,
		warmupService: warmupService,
		log:           logger.OrNop(log).With("component", "template_controller"),
	}
}

func categoryParam(r *http.Request) (models.ProductCategory, error) {
	raw := r.URL.Query().Get("category")
	category, ok := models.ParseCategoryFilter(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", models.ErrInvalidRequest, raw)
	}
	return category, nil
}

// List handles GET /mockups/templates?category=
func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	category, err := categoryParam(r)
	if err != nil {
		writeError(w, c.log, err)
		return
	}

	templates, err := c.mockupService.Templates(r.Context(), category)
	if err != nil {
		writeError(w, c.log, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, map[string]interface{}{
		"category":  category,
		"count":     len(templates),
		"templates": templates,
	})
}

// Warmup handles POST /admin/templates/warmup?category=
// Decodes template layers ahead of traffic and reports broken templates.
func (c *TemplateController) Warmup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	category, err := categoryParam(r)
	if err != nil {
		writeError(w, c.log, err)
		return
	}

	c.log.Info("🔄 Warm-up request received", "category", category)
	report, err := c.warmupService.WarmLayers(r.Context(), category)
	if err != nil {
		writeError(w, c.log, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, report)
}
