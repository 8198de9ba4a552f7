package models

import "strings"

// ProductCategory classifies the physical product a template renders onto.
type ProductCategory string

const (
	CategoryWallArt   ProductCategory = "wall-art"
	CategoryApparel   ProductCategory = "apparel"
	CategoryDrinkware ProductCategory = "drinkware"
	CategoryOther     ProductCategory = "other"

	// CategoryAll is a filter value only, never a template's category.
	CategoryAll ProductCategory = "all"
)

// ParseProductCategory normalizes a stored category string. Unknown values are rejected;
// "all" is a filter and never a template category.
func ParseProductCategory(s string) (ProductCategory, bool) {
	switch c := ProductCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryWallArt, CategoryApparel, CategoryDrinkware, CategoryOther:
		return c, true
	default:
		return "", false
	}
}

// ParseCategoryFilter parses a batch category filter. Empty means all; unknown values are rejected.
func ParseCategoryFilter(s string) (ProductCategory, bool) {
	switch c := ProductCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CategoryAll:
		return CategoryAll, true
	case CategoryWallArt, CategoryApparel, CategoryDrinkware, CategoryOther:
		return c, true
	default:
		return "", false
	}
}

// PrintArea is a rectangle normalized to [0,1] of the base photo's dimensions.
type PrintArea struct {
	X      float64 `json:"x" toml:"x" yaml:"x" validate:"gte=0,lte=1"`
	Y      float64 `json:"y" toml:"y" yaml:"y" validate:"gte=0,lte=1"`
	Width  float64 `json:"width" toml:"width" yaml:"width" validate:"gt=0,lte=1"`
	Height float64 `json:"height" toml:"height" yaml:"height" validate:"gt=0,lte=1"`
}

// LayerRefs points at the raster assets of a template. Values are paths relative to the
// asset root, or drive://<fileId> handles.
type LayerRefs struct {
	Base         string `json:"base" toml:"base" yaml:"base" validate:"required"`
	Displacement string `json:"displacement" toml:"displacement" yaml:"displacement" validate:"required"`
	Mask         string `json:"mask,omitempty" toml:"mask" yaml:"mask,omitempty"`
	Shadow       string `json:"shadow,omitempty" toml:"shadow" yaml:"shadow,omitempty"`
	Highlight    string `json:"highlight,omitempty" toml:"highlight" yaml:"highlight,omitempty"`
	Texture      string `json:"texture,omitempty" toml:"texture" yaml:"texture,omitempty"`
}

// Template identifies one renderable product surface. Immutable once loaded.
type Template struct {
	ID              string          `json:"id" toml:"id" yaml:"id" validate:"required"`
	ProductCategory ProductCategory `json:"productCategory" toml:"productCategory" yaml:"productCategory" validate:"required,oneof=wall-art apparel drinkware other"`
	ColorTag        string          `json:"colorTag" toml:"colorTag" yaml:"colorTag"`
	AngleTag        string          `json:"angleTag" toml:"angleTag" yaml:"angleTag"`
	PrintArea       PrintArea       `json:"printArea" toml:"printArea" yaml:"printArea"`
	LayerRefs       LayerRefs       `json:"layerRefs" toml:"layerRefs" yaml:"layerRefs"`
}
