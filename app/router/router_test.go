package router

import (
	"bytes"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundprint-mockup/app/controller"
	"soundprint-mockup/catalog"
	"soundprint-mockup/compositor"
	"soundprint-mockup/layers"
	"soundprint-mockup/models"
	"soundprint-mockup/pregen"
	"soundprint-mockup/rendercache"
	"soundprint-mockup/service"
	"soundprint-mockup/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	src := testutil.NewMemorySource()
	area := models.PrintArea{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}

	var templates []models.Template
	for _, id := range []string{"tee-black", "tee-white"} {
		tpl := testutil.Template(id, models.CategoryApparel, area)
		src.AddTemplateAssets(t, tpl, 32, 32, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		templates = append(templates, tpl)
	}

	cat := catalog.NewStatic(templates, nil)
	store := layers.NewStore(src, 8<<20, 2, nil)
	cache := rendercache.New(8<<20, 50, nil, nil)
	renderer := pregen.NewRenderer(store, cache, compositor.New(), 2, nil)
	generator := pregen.NewGenerator(cat, renderer, pregen.Options{Workers: 2, Timeout: 5 * time.Second}, nil)
	svc := service.NewMockupService(service.MockupServiceDeps{
		Catalog:   cat,
		Layers:    store,
		Cache:     cache,
		Renderer:  renderer,
		Generator: generator,
	}, nil)

	mux := http.NewServeMux()
	SetupRoutes(mux, &Controllers{
		Mockup:   controller.NewMockupController(svc, 1<<20, nil),
		Template: controller.NewTemplateController(svc, service.NewWarmupService(cat, store, nil), nil),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateThenPreviewHitsCache(t *testing.T) {
	srv := newTestServer(t)
	design := testutil.PNG(t, testutil.Solid(16, 16, color.NRGBA{R: 255, A: 255}))

	resp := post(t, srv.URL+"/mockups/generate", models.GenerateMockupsRequest{Design: design, Category: "apparel"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var gen models.GenerateMockupsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&gen))
	assert.NotEmpty(t, gen.BatchID)
	require.Len(t, gen.Mockups, 2)
	assert.Equal(t, "tee-black", gen.Mockups[0].TemplateID)
	assert.Equal(t, 2, gen.Stats.GeneratedCount)

	// Same design, config and format as the batch, so the preview is served from cache
	resp = post(t, srv.URL+"/mockups/preview", models.PreviewRequest{TemplateID: "tee-white", Design: design})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestStatsAndTemplates(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/mockups/templates?category=apparel")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/mockups/stats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var stats models.ServiceStats
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Templates)
}

func TestPreviewUnknownTemplate(t *testing.T) {
	srv := newTestServer(t)
	design := testutil.PNG(t, testutil.Solid(4, 4, color.NRGBA{B: 255, A: 255}))

	resp := post(t, srv.URL+"/mockups/preview", models.PreviewRequest{TemplateID: "nope", Design: design})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnsupportedOutputFormatIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	design := testutil.PNG(t, testutil.Solid(4, 4, color.NRGBA{B: 255, A: 255}))

	resp := post(t, srv.URL+"/mockups/preview", models.PreviewRequest{TemplateID: "tee-white", Design: design, OutputFormat: "gif"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/mockups/generate", models.GenerateMockupsRequest{Design: design, OutputFormat: "gif"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.ReasonInvalidRequest, body["reason"])
}
