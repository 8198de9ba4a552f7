package pregen

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundprint-mockup/compositor"
	"soundprint-mockup/layers"
	"soundprint-mockup/models"
	"soundprint-mockup/rendercache"
	"soundprint-mockup/testutil"
)

func TestRendererConcurrentIdenticalRequestsComputeOnce(t *testing.T) {
	t.Parallel()

	src := testutil.NewMemorySource()
	src.Delay = 30 * time.Millisecond
	tpl := testutil.Template("mug-white-left", models.CategoryDrinkware, shirtArea)
	src.AddTemplateAssets(t, tpl, 50, 50, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	cache := rendercache.New(16<<20, 100, nil, nil)
	r := NewRenderer(layers.NewStore(src, 16<<20, 2, nil), cache, compositor.New(), 2, nil)

	design, err := NewDesign(testutil.PNG(t, testutil.Solid(20, 10, color.NRGBA{B: 255, A: 255})), 0)
	require.NoError(t, err)
	cfg := models.RenderConfig{}.Resolve()

	results := make([]*models.RenderResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Render(context.Background(), tpl, design, cfg, models.FormatWebP, 75)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].OutputBytes, results[1].OutputBytes)
	assert.Equal(t, models.FormatWebP, results[0].OutputFormat)
	assert.EqualValues(t, 1, cache.Stats().Misses)
	assert.Equal(t, 1, src.Fetches(tpl.LayerRefs.Base))
}

func TestRendererSurfacesInvalidPrintArea(t *testing.T) {
	t.Parallel()

	src := testutil.NewMemorySource()
	tpl := testutil.Template("sliver", models.CategoryOther, models.PrintArea{X: 0.5, Y: 0.5, Width: 0.001, Height: 0.1})
	src.AddTemplateAssets(t, tpl, 100, 100, color.NRGBA{A: 255})

	cache := rendercache.New(16<<20, 100, nil, nil)
	r := NewRenderer(layers.NewStore(src, 16<<20, 2, nil), cache, nil, 1, nil)
	design, err := NewDesign(testutil.PNG(t, testutil.Solid(8, 8, color.NRGBA{A: 255})), 0)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), tpl, design, models.RenderConfig{}.Resolve(), models.FormatPNG, 0)
	assert.ErrorIs(t, err, models.ErrInvalidPrintArea)
	assert.Equal(t, 0, cache.Stats().Entries)
}
