package router

import (
	"net/http"

	"soundprint-mockup/app/controller"
)

type Controllers struct {
	Mockup   *controller.MockupController
	Template *controller.TemplateController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes registers every endpoint on mux (http.DefaultServeMux when nil).
func SetupRoutes(mux *http.ServeMux, controllers *Controllers) {
	if mux == nil {
		mux = http.DefaultServeMux
	}

	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Render a design across a category
	mux.HandleFunc("/mockups/generate", controllers.Mockup.Generate)

	// Render a single template and return the image bytes
	mux.HandleFunc("/mockups/preview", controllers.Mockup.Preview)

	// Cache and throughput counters
	mux.HandleFunc("/mockups/stats", controllers.Mockup.Stats)

	// Template catalog
	mux.HandleFunc("/mockups/templates", controllers.Template.List)

	// Pre-decode template layers
	mux.HandleFunc("/admin/templates/warmup", controllers.Template.Warmup)
}
