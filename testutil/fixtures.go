// Package testutil synthesizes template assets and designs for tests across packages.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"soundprint-mockup/models"
)

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Gray returns a w×h grayscale image filled with v.
func Gray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// PNG encodes img, failing the test on error.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Template builds a valid template whose refs point at <id>/base.png and <id>/displacement.png.
func Template(id string, category models.ProductCategory, area models.PrintArea) models.Template {
	return models.Template{
		ID:              id,
		ProductCategory: category,
		ColorTag:        "white",
		AngleTag:        "front",
		PrintArea:       area,
		LayerRefs: models.LayerRefs{
			Base:         id + "/base.png",
			Displacement: id + "/displacement.png",
		},
	}
}

// MemorySource is an in-memory asset source that counts fetches per ref.
type MemorySource struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetches map[string]int
	// Delay is applied to every fetch, to widen race windows in concurrency tests.
	Delay time.Duration
}

func NewMemorySource() *MemorySource {
	return &MemorySource{files: map[string][]byte{}, fetches: map[string]int{}}
}

func (m *MemorySource) Put(ref string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[ref] = data
}

func (m *MemorySource) Remove(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
}

func (m *MemorySource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[ref]++
	data, ok := m.files[ref]
	if !ok {
		return nil, fmt.Errorf("no such asset: %s", ref)
	}
	return data, nil
}

// Fetches returns how many times ref was fetched.
func (m *MemorySource) Fetches(ref string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[ref]
}

// AddTemplateAssets stores a solid base of the given colour and a neutral (mid-gray)
// displacement map for tpl.
func (m *MemorySource) AddTemplateAssets(t testing.TB, tpl models.Template, w, h int, base color.NRGBA) {
	t.Helper()
	m.Put(tpl.LayerRefs.Base, PNG(t, Solid(w, h, base)))
	m.Put(tpl.LayerRefs.Displacement, PNG(t, Gray(w, h, 128)))
}
