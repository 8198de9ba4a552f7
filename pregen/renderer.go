package pregen

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"soundprint-mockup/compositor"
	"soundprint-mockup/layers"
	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/rendercache"
)

// Design is a decoded design together with the hash of its source bytes.
type Design struct {
	Image image.Image
	Hash  string
}

// NewDesign decodes and fingerprints raw design bytes.
func NewDesign(data []byte, maxBytes int64) (Design, error) {
	img, err := compositor.DecodeDesign(data, maxBytes)
	if err != nil {
		return Design{}, err
	}
	return Design{Image: img, Hash: rendercache.HashDesign(data)}, nil
}

// RendererInterface renders one template with one design.
type RendererInterface interface {
	Render(ctx context.Context, tpl models.Template, design Design, cfg models.ResolvedConfig, format models.OutputFormat, quality int) (*models.RenderResult, error)
}

// Renderer resolves layers, composites and encodes through the render cache. Compositing and
// encoding hold a slot of a CPU-sized semaphore shared by every request.
type Renderer struct {
	layers     layers.StoreInterface
	cache      rendercache.CacheInterface
	compositor *compositor.Compositor
	cpu        *semaphore.Weighted
	log        *logger.Logger
}

// NewRenderer creates a Renderer allowing cpuWorkers concurrent compositions.
func NewRenderer(store layers.StoreInterface, cache rendercache.CacheInterface, comp *compositor.Compositor, cpuWorkers int, log *logger.Logger) *Renderer {
	if cpuWorkers < 1 {
		cpuWorkers = 1
	}
	if comp == nil {
		comp = compositor.New()
	}
	return &Renderer{
		layers:     store,
		cache:      cache,
		compositor: comp,
		cpu:        semaphore.NewWeighted(int64(cpuWorkers)),
		log:        logger.OrNop(log).With("component", "Renderer"),
	}
}

// Ensure Renderer implements RendererInterface
var _ RendererInterface = (*Renderer)(nil)

// Render returns the encoded mockup for tpl, from cache when an identical render exists.
func (r *Renderer) Render(ctx context.Context, tpl models.Template, design Design, cfg models.ResolvedConfig, format models.OutputFormat, quality int) (*models.RenderResult, error) {
	start := time.Now()
	quality = models.ClampQuality(quality)
	fp := rendercache.Fingerprint(tpl.ID, design.Hash, cfg, format, quality)

	ctx, span := startChildSpan(ctx, "pregen.Render",
		attribute.String("template.id", tpl.ID), attribute.String("render.format", string(format)))
	entry, cached, err := r.cache.ComputeOrWait(ctx, fp, func(ctx context.Context) (rendercache.Entry, error) {
		return r.compute(ctx, tpl, design, cfg, format, quality)
	})
	span.SetAttributes(attribute.Bool("render.cache_hit", cached))
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return &models.RenderResult{
		TemplateID:   tpl.ID,
		OutputBytes:  entry.Bytes,
		OutputFormat: entry.Format,
		FromCache:    cached,
		RenderTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func (r *Renderer) compute(ctx context.Context, tpl models.Template, design Design, cfg models.ResolvedConfig, format models.OutputFormat, quality int) (entry rendercache.Entry, err error) {
	ctx, span := startChildSpan(ctx, "pregen.Compose", attribute.String("template.id", tpl.ID))
	defer func() {
		span.SetAttributes(attribute.Int("render.bytes", len(entry.Bytes)))
		endSpan(span, err)
	}()

	set, err := r.layers.Resolve(ctx, tpl)
	if err != nil {
		return rendercache.Entry{}, err
	}

	if err := r.cpu.Acquire(ctx, 1); err != nil {
		return rendercache.Entry{}, fmt.Errorf("waiting for render slot: %w", err)
	}
	defer r.cpu.Release(1)

	start := time.Now()
	img, err := r.compositor.Render(set, tpl, design.Image, cfg)
	if err != nil {
		return rendercache.Entry{}, err
	}
	data, err := compositor.Encode(img, format, quality)
	if err != nil {
		return rendercache.Entry{}, err
	}

	elapsed := time.Since(start).Milliseconds()
	r.log.Debug("✓ Mockup rendered", "templateId", tpl.ID, "format", format, "bytes", len(data), "ms", elapsed)
	return rendercache.Entry{Bytes: data, Format: format, RenderTimeMs: elapsed}, nil
}
