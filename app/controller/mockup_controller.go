package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/service"
	"soundprint-mockup/utils"
)

// MockupController handles HTTP requests for mockup rendering
type MockupController struct {
	mockupService  service.MockupServiceInterface
	maxRequestSize int64
	log            *logger.Logger
}

// NewMockupController creates a new MockupController. maxDesignBytes bounds request bodies
// (base64 inflates designs by a third).
func NewMockupController(mockupService service.MockupServiceInterface, maxDesignBytes int64, log *logger.Logger) *MockupController {
	maxRequestSize := int64(0)
	if maxDesignBytes > 0 {
		maxRequestSize = maxDesignBytes/3*4 + 1<<20
	}
	return &MockupController{
		mockupService:  mockupService,
		maxRequestSize: maxRequestSize,
		log:            logger.OrNop(log).With("component", "mockup_controller"),
	}
}

func (c *MockupController) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if c.maxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxRequestSize)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidRequest, err)
	}
	return nil
}

// Generate handles POST /mockups/generate
// Renders a design across every template of a category. Always 200 with per-template results,
// except for an undecodable design (400) or an unavailable catalog (500).
func (c *MockupController) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.GenerateMockupsRequest
	if err := c.decode(w, r, &req); err != nil {
		writeError(w, c.log, err)
		return
	}

	c.log.Info("📥 Generate request",
		"category", req.Category, "format", req.OutputFormat, "upload", req.UploadToStorage, "designBytes", len(req.Design))

	resp, err := c.mockupService.Generate(r.Context(), req)
	if err != nil {
		c.log.Error("❌ Generate failed", "error", err)
		writeError(w, c.log, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, resp)
}

// Preview handles POST /mockups/preview[?size=thumb|medium]
// Returns the encoded mockup bytes of a single template.
func (c *MockupController) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.PreviewRequest
	if err := c.decode(w, r, &req); err != nil {
		writeError(w, c.log, err)
		return
	}
	if req.Size == "" {
		req.Size = r.URL.Query().Get("size")
	}
	if req.TemplateID == "" {
		writeError(w, c.log, fmt.Errorf("%w: templateId is required", models.ErrInvalidRequest))
		return
	}

	res, err := c.mockupService.Preview(r.Context(), req)
	if err != nil {
		writeError(w, c.log, err)
		return
	}

	cacheStatus := "MISS"
	if res.FromCache {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", utils.ContentTypeForFormat(string(res.OutputFormat)))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.OutputBytes)))
	w.Header().Set("X-Render-Time-Ms", strconv.FormatInt(res.RenderTimeMs, 10))
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.OutputBytes); err != nil {
		c.log.Warn("⚠️ Failed to write preview", "templateId", res.TemplateID, "error", err)
	}
}

// Stats handles GET /mockups/stats
func (c *MockupController) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, c.log, http.StatusOK, c.mockupService.Stats())
}
