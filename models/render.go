package models

import "strings"

// BlendMode selects how the design layer is combined with the base photo.
type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendMultiply BlendMode = "multiply"
	BlendOverlay  BlendMode = "overlay"
	BlendScreen   BlendMode = "screen"
)

// OutputFormat is the encoded raster format of a render.
type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
	FormatWebP OutputFormat = "webp"
)

const (
	DefaultIntensity      = 10.0
	MaxIntensity          = 20.0
	DefaultBrightness     = 0.95
	MaxBrightness         = 2.0
	DefaultTextureOpacity = 0.3
	DefaultQuality        = 90
)

// RenderConfig carries the caller-tunable compositing parameters.
// Pointer fields distinguish "unset" from an explicit zero.
type RenderConfig struct {
	Intensity      *float64  `json:"intensity,omitempty"`
	Brightness     *float64  `json:"brightness,omitempty"`
	BlendMode      BlendMode `json:"blendMode,omitempty"`
	TextureOverlay bool      `json:"textureOverlay,omitempty"`
	TextureOpacity *float64  `json:"textureOpacity,omitempty"`
}

// ResolvedConfig is a RenderConfig with defaults applied and ranges clamped.
type ResolvedConfig struct {
	Intensity      float64   `json:"intensity"`
	Brightness     float64   `json:"brightness"`
	BlendMode      BlendMode `json:"blendMode"`
	TextureOverlay bool      `json:"textureOverlay"`
	TextureOpacity float64   `json:"textureOpacity"`
}

// Resolve applies defaults and clamps every numeric field into range. It never fails.
func (c RenderConfig) Resolve() ResolvedConfig {
	r := ResolvedConfig{
		Intensity:      DefaultIntensity,
		Brightness:     DefaultBrightness,
		BlendMode:      ParseBlendMode(string(c.BlendMode)),
		TextureOverlay: c.TextureOverlay,
		TextureOpacity: DefaultTextureOpacity,
	}
	if c.Intensity != nil {
		r.Intensity = clamp(*c.Intensity, 0, MaxIntensity)
	}
	if c.Brightness != nil {
		r.Brightness = clamp(*c.Brightness, 0, MaxBrightness)
	}
	if c.TextureOpacity != nil {
		r.TextureOpacity = clamp(*c.TextureOpacity, 0, 1)
	}
	return r
}

// ParseBlendMode normalizes a blend mode name; unknown values fall back to normal.
func ParseBlendMode(s string) BlendMode {
	switch BlendMode(strings.ToLower(strings.TrimSpace(s))) {
	case BlendMultiply:
		return BlendMultiply
	case BlendOverlay:
		return BlendOverlay
	case BlendScreen:
		return BlendScreen
	default:
		return BlendNormal
	}
}

// ParseOutputFormat normalizes an output format. Empty means PNG; anything other than png,
// jpeg (or jpg) and webp is rejected.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// ClampQuality maps quality into [1,100]; zero means "use the default".
func ClampQuality(q int) int {
	if q == 0 {
		return DefaultQuality
	}
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// Float64 returns a pointer to v, for building RenderConfig literals.
func Float64(v float64) *float64 {
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RenderRequest asks for one template rendered with one design.
type RenderRequest struct {
	TemplateID    string
	Design        []byte
	Config        RenderConfig
	OutputFormat  OutputFormat
	OutputQuality int
}

// RenderResult is one successful render.
type RenderResult struct {
	TemplateID   string       `json:"templateId"`
	OutputBytes  []byte       `json:"-"`
	OutputFormat OutputFormat `json:"outputFormat"`
	FromCache    bool         `json:"fromCache"`
	RenderTimeMs int64        `json:"renderTimeMs"`
}

// RenderFailure records why one template in a batch did not render.
type RenderFailure struct {
	TemplateID string `json:"templateId"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}
