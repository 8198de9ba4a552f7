package pregen

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"soundprint-mockup/catalog"
	"soundprint-mockup/compositor"
	"soundprint-mockup/layers"
	"soundprint-mockup/models"
	"soundprint-mockup/rendercache"
	"soundprint-mockup/testutil"
)

var shirtArea = models.PrintArea{X: 0.3, Y: 0.25, Width: 0.4, Height: 0.45}

type fixture struct {
	src       *testutil.MemorySource
	generator *Generator
	design    []byte
}

func newGenerator(t *testing.T, src layers.AssetSourceInterface, templates []models.Template, opts Options) *Generator {
	t.Helper()
	store := layers.NewStore(src, 64<<20, 4, nil)
	cache := rendercache.New(64<<20, 1000, nil, nil)
	renderer := NewRenderer(store, cache, compositor.New(), 2, nil)
	return NewGenerator(catalog.NewStatic(templates, nil), renderer, opts, nil)
}

func apparelFixture(t *testing.T) fixture {
	t.Helper()
	src := testutil.NewMemorySource()

	var templates []models.Template
	for i := 1; i <= 6; i++ {
		tpl := testutil.Template(fmt.Sprintf("tee-%d", i), models.CategoryApparel, shirtArea)
		src.AddTemplateAssets(t, tpl, 60, 80, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		templates = append(templates, tpl)
	}
	poster := testutil.Template("poster-white-front", models.CategoryWallArt, shirtArea)
	src.AddTemplateAssets(t, poster, 60, 80, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	templates = append(templates, poster)

	// tee-4 is missing its displacement map
	src.Remove("tee-4/displacement.png")

	return fixture{
		src:       src,
		generator: newGenerator(t, src, templates, Options{Workers: 3, Timeout: 10 * time.Second, Retries: 1}),
		design:    testutil.PNG(t, testutil.Solid(30, 30, color.NRGBA{R: 255, A: 255})),
	}
}

func TestGenerateAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	f := apparelFixture(t)
	res, err := f.generator.GenerateAll(context.Background(), models.BatchJob{
		Design:         f.design,
		CategoryFilter: models.CategoryApparel,
		OutputFormat:   models.FormatPNG,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 6, res.Stats.Total)
	assert.Equal(t, 5, res.Stats.GeneratedCount+res.Stats.CachedCount)
	assert.Equal(t, 1, res.Stats.FailedCount)

	require.Len(t, res.Items, 6)
	for i, item := range res.Items {
		assert.Equal(t, fmt.Sprintf("tee-%d", i+1), item.TemplateID, "catalog order")
		if item.TemplateID == "tee-4" {
			require.NotNil(t, item.Failure)
			assert.Equal(t, models.ReasonTemplateAsset, item.Failure.Reason)
			continue
		}
		require.True(t, item.OK(), item.TemplateID)
		assert.NotEmpty(t, item.Result.OutputBytes)
		assert.False(t, item.Result.FromCache)
	}
}

func TestGenerateAllTracesBatch(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := apparelFixture(t)
	var templates []models.Template
	for i := 1; i <= 6; i++ {
		templates = append(templates, testutil.Template(fmt.Sprintf("tee-%d", i), models.CategoryApparel, shirtArea))
	}
	gen := newGenerator(t, f.src, templates, Options{Workers: 2, TracerProvider: tp})

	res, err := gen.GenerateAll(context.Background(), models.BatchJob{Design: f.design, CategoryFilter: models.CategoryApparel})
	require.NoError(t, err)
	require.Equal(t, 1, res.Stats.FailedCount)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, span := range recorder.Ended() {
		byName[span.Name()] = append(byName[span.Name()], span)
	}
	require.Len(t, byName["pregen.GenerateAll"], 1)
	assert.Len(t, byName["pregen.Render"], 6)
	assert.Len(t, byName["pregen.Compose"], 6)

	batch := byName["pregen.GenerateAll"][0]
	assert.Equal(t, codes.Unset, batch.Status().Code)

	failed := 0
	for _, span := range byName["pregen.Render"] {
		assert.Equal(t, batch.SpanContext().TraceID(), span.SpanContext().TraceID())
		assert.Equal(t, batch.SpanContext().SpanID(), span.Parent().SpanID())
		if span.Status().Code == codes.Error {
			failed++
			assert.Equal(t, models.ReasonTemplateAsset, span.Status().Description)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestGenerateAllSecondRunIsCached(t *testing.T) {
	t.Parallel()

	f := apparelFixture(t)
	job := models.BatchJob{Design: f.design, CategoryFilter: models.CategoryAll, OutputFormat: models.FormatJPEG, OutputQuality: 80}

	first, err := f.generator.GenerateAll(context.Background(), job)
	require.NoError(t, err)
	second, err := f.generator.GenerateAll(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 7, second.Stats.Total)
	assert.Equal(t, 6, second.Stats.CachedCount)
	assert.Equal(t, 0, second.Stats.GeneratedCount)
	assert.NotEqual(t, first.BatchID, second.BatchID)

	for i := range first.Items {
		if !first.Items[i].OK() {
			continue
		}
		assert.Equal(t, first.Items[i].Result.OutputBytes, second.Items[i].Result.OutputBytes)
		assert.True(t, second.Items[i].Result.FromCache)
	}
}

func TestGenerateAllRejectsUndecodableDesign(t *testing.T) {
	t.Parallel()

	f := apparelFixture(t)
	_, err := f.generator.GenerateAll(context.Background(), models.BatchJob{
		Design:         []byte("not an image"),
		CategoryFilter: models.CategoryApparel,
	})
	assert.ErrorIs(t, err, models.ErrDesignDecode)
}

type failingTemplates struct{}

func (failingTemplates) FilterByCategory(context.Context, models.ProductCategory) ([]models.Template, error) {
	return nil, fmt.Errorf("%w: metadata store offline", models.ErrCatalogUnavailable)
}

func TestGenerateAllCatalogUnavailable(t *testing.T) {
	t.Parallel()

	g := NewGenerator(failingTemplates{}, nil, Options{}, nil)
	_, err := g.GenerateAll(context.Background(), models.BatchJob{Design: []byte("x")})
	assert.ErrorIs(t, err, models.ErrCatalogUnavailable)
}

// gatedSource blocks fetches of refs under slow/ until the test ends.
type gatedSource struct {
	*testutil.MemorySource
	gate chan struct{}
}

func (s gatedSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "slow/") {
		<-s.gate
	}
	return s.MemorySource.Fetch(ctx, ref)
}

func TestGenerateAllTimeoutDoesNotBlock(t *testing.T) {
	t.Parallel()

	mem := testutil.NewMemorySource()
	src := gatedSource{MemorySource: mem, gate: make(chan struct{})}
	t.Cleanup(func() { close(src.gate) })

	fast := testutil.Template("fast", models.CategoryApparel, shirtArea)
	slow := testutil.Template("slow", models.CategoryApparel, shirtArea)
	mem.AddTemplateAssets(t, fast, 40, 40, color.NRGBA{A: 255})
	mem.AddTemplateAssets(t, slow, 40, 40, color.NRGBA{A: 255})

	g := newGenerator(t, src, []models.Template{slow, fast}, Options{Workers: 2, Timeout: 200 * time.Millisecond})

	start := time.Now()
	res, err := g.GenerateAll(context.Background(), models.BatchJob{
		Design:         testutil.PNG(t, testutil.Solid(10, 10, color.NRGBA{G: 255, A: 255})),
		CategoryFilter: models.CategoryApparel,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, res.Items, 2)
	require.NotNil(t, res.Items[0].Failure)
	assert.Equal(t, models.ReasonTimeout, res.Items[0].Failure.Reason)
	assert.True(t, res.Items[1].OK())
	assert.Equal(t, 1, res.Stats.FailedCount)
}

type stubRenderer struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string][]error
}

func (s *stubRenderer) Render(_ context.Context, tpl models.Template, _ Design, _ models.ResolvedConfig, format models.OutputFormat, _ int) (*models.RenderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[tpl.ID]
	s.calls[tpl.ID]++
	if errs := s.errs[tpl.ID]; n < len(errs) && errs[n] != nil {
		return nil, errs[n]
	}
	return &models.RenderResult{TemplateID: tpl.ID, OutputBytes: []byte("ok"), OutputFormat: format, RenderTimeMs: 4}, nil
}

func TestGenerateAllRetries(t *testing.T) {
	t.Parallel()

	transient := fmt.Errorf("%w: connection reset", models.ErrTemplateAsset)
	stub := &stubRenderer{
		calls: map[string]int{},
		errs: map[string][]error{
			"flaky":  {transient},
			"broken": {transient, transient, transient},
			"tiny":   {models.ErrInvalidPrintArea},
		},
	}
	templates := []models.Template{
		testutil.Template("flaky", models.CategoryOther, shirtArea),
		testutil.Template("broken", models.CategoryOther, shirtArea),
		testutil.Template("tiny", models.CategoryOther, shirtArea),
		testutil.Template("fine", models.CategoryOther, shirtArea),
	}
	g := NewGenerator(catalog.NewStatic(templates, nil), stub, Options{Workers: 4, Retries: 2}, nil)

	res, err := g.GenerateAll(context.Background(), models.BatchJob{
		Design: testutil.PNG(t, testutil.Solid(4, 4, color.NRGBA{A: 255})),
	})
	require.NoError(t, err)

	assert.True(t, res.Items[0].OK())
	assert.Equal(t, 2, stub.calls["flaky"])

	require.NotNil(t, res.Items[1].Failure)
	assert.Equal(t, 3, stub.calls["broken"])

	require.NotNil(t, res.Items[2].Failure)
	assert.Equal(t, models.ReasonInvalidPrintArea, res.Items[2].Failure.Reason)
	assert.Equal(t, 1, stub.calls["tiny"], "deterministic failures are not retried")

	assert.True(t, res.Items[3].OK())
	assert.Equal(t, models.BatchStats{Total: 4, GeneratedCount: 2, FailedCount: 2, TotalTimeMs: 8, AverageTimeMs: 4, WallTimeMs: res.Stats.WallTimeMs}, res.Stats)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := Summarize([]models.BatchItem{
		{TemplateID: "a", Result: &models.RenderResult{FromCache: true, RenderTimeMs: 2}},
		{TemplateID: "b", Result: &models.RenderResult{RenderTimeMs: 40}},
		{TemplateID: "c", Failure: models.NewFailure("c", errors.New("boom"))},
	})
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.CachedCount)
	assert.Equal(t, 1, stats.GeneratedCount)
	assert.Equal(t, 1, stats.FailedCount)
	assert.Equal(t, int64(42), stats.TotalTimeMs)
	assert.Equal(t, int64(21), stats.AverageTimeMs)
}
