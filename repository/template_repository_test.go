package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundprint-mockup/models"
)

type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = f.values[i].(string)
		case *float64:
			*ptr = f.values[i].(float64)
		}
	}
	return nil
}

func TestScanTemplate(t *testing.T) {
	t.Parallel()

	row := fakeRow{values: []any{
		"canvas-natural-angle", "wall-art", "natural", "angle",
		0.15, 0.12, 0.7, 0.7,
		"canvas/base.png", "canvas/disp.png", "canvas/mask.png", "", "canvas/highlight.png", "",
	}}

	tpl, err := scanTemplate(row)
	require.NoError(t, err)
	assert.Equal(t, "canvas-natural-angle", tpl.ID)
	assert.Equal(t, models.CategoryWallArt, tpl.ProductCategory)
	assert.Equal(t, models.PrintArea{X: 0.15, Y: 0.12, Width: 0.7, Height: 0.7}, tpl.PrintArea)
	assert.Equal(t, "canvas/mask.png", tpl.LayerRefs.Mask)
	assert.Empty(t, tpl.LayerRefs.Shadow)
}

func TestScanTemplateNormalizesCategory(t *testing.T) {
	t.Parallel()

	values := func(category string) []any {
		return []any{
			"tee-black-front", category, "black", "front",
			0.3, 0.25, 0.4, 0.45,
			"tee/base.png", "tee/disp.png", "", "", "", "",
		}
	}

	tpl, err := scanTemplate(fakeRow{values: values(" Apparel ")})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryApparel, tpl.ProductCategory)

	_, err = scanTemplate(fakeRow{values: values("furniture")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "furniture")
}

func TestScanTemplateError(t *testing.T) {
	t.Parallel()

	_, err := scanTemplate(fakeRow{err: errors.New("bad row")})
	require.Error(t, err)
}

func TestLoadTemplatesQuery(t *testing.T) {
	t.Parallel()

	query, args, err := loadTemplatesQuery()
	require.NoError(t, err)
	assert.Equal(t, []any{true}, args)
	assert.Contains(t, query, "FROM mockup_templates WHERE is_active = $1 ORDER BY sort_order ASC, id ASC")
	assert.Contains(t, query, "COALESCE(texture_ref, '') AS texture_ref")
	assert.Equal(t, len(templateColumns), 14)
}
