package pregen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// TemplateSourceInterface lists the templates of a category in catalog order.
type TemplateSourceInterface interface {
	FilterByCategory(ctx context.Context, category models.ProductCategory) ([]models.Template, error)
}

// Options tune a Generator.
type Options struct {
	// Workers bounds templates in flight per batch.
	Workers int
	// Timeout is the wall-clock budget of a batch; zero disables it.
	Timeout time.Duration
	// Retries is how many extra attempts a failed template gets, unless the failure is deterministic.
	Retries int
	// MaxDesignBytes rejects oversized designs; zero disables the guard.
	MaxDesignBytes int64
	// TracerProvider receives batch spans; nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// Generator renders one design across every template of a category.
type Generator struct {
	templates TemplateSourceInterface
	renderer  RendererInterface
	opts      Options
	log       *logger.Logger
}

// NewGenerator creates a batch pre-generator.
func NewGenerator(templates TemplateSourceInterface, renderer RendererInterface, opts Options, log *logger.Logger) *Generator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &Generator{
		templates: templates,
		renderer:  renderer,
		opts:      opts,
		log:       logger.OrNop(log).With("component", "PreGenerator"),
	}
}

type indexedItem struct {
	index int
	item  models.BatchItem
}

// GenerateAll renders job across the matching templates. Per-template failures are recorded in
// the result; an error is returned only when the design cannot be decoded or the catalog is
// unavailable. Items follow catalog order.
func (g *Generator) GenerateAll(ctx context.Context, job models.BatchJob) (result *models.BatchResult, err error) {
	start := time.Now()
	batchID := uuid.NewString()
	log := g.log.With("batchId", batchID)

	category := job.CategoryFilter
	if category == "" {
		category = models.CategoryAll
	}

	ctx, span := g.opts.TracerProvider.Tracer(tracerName).Start(ctx, "pregen.GenerateAll",
		trace.WithAttributes(attribute.String("batch.id", batchID), attribute.String("batch.category", string(category))))
	defer func() {
		if result != nil {
			span.SetAttributes(
				attribute.Int("batch.total", result.Stats.Total),
				attribute.Int("batch.generated", result.Stats.GeneratedCount),
				attribute.Int("batch.cached", result.Stats.CachedCount),
				attribute.Int("batch.failed", result.Stats.FailedCount),
			)
		}
		endSpan(span, err)
	}()

	templates, err := g.templates.FilterByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	design, err := NewDesign(job.Design, g.opts.MaxDesignBytes)
	if err != nil {
		return nil, err
	}

	cfg := job.Config.Resolve()
	format := job.OutputFormat
	if format == "" {
		format = models.FormatPNG
	}
	quality := models.ClampQuality(job.OutputQuality)

	log.Info("📥 Starting mockup batch", "category", category, "templates", len(templates), "format", format)

	batchCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	// Buffered so that workers finishing after the deadline never block.
	results := make(chan indexedItem, len(templates))
	sem := semaphore.NewWeighted(int64(g.opts.Workers))

	go func() {
		for i, tpl := range templates {
			if err := sem.Acquire(batchCtx, 1); err != nil {
				return
			}
			go func(i int, tpl models.Template) {
				defer sem.Release(1)
				results <- indexedItem{index: i, item: g.renderWithRetry(batchCtx, tpl, design, cfg, format, quality)}
			}(i, tpl)
		}
	}()

	items := make([]models.BatchItem, len(templates))
	filled := make([]bool, len(templates))
	pending := len(templates)

collect:
	for pending > 0 {
		select {
		case r := <-results:
			items[r.index] = r.item
			filled[r.index] = true
			pending--
		case <-batchCtx.Done():
			break collect
		}
	}

	if pending > 0 {
		log.Warn("⚠️  Batch budget expired", "pending", pending, "timeout", g.opts.Timeout)
		for i, tpl := range templates {
			if filled[i] {
				continue
			}
			items[i] = models.BatchItem{
				TemplateID: tpl.ID,
				Failure: &models.RenderFailure{
					TemplateID: tpl.ID,
					Reason:     models.ReasonTimeout,
					Message:    fmt.Sprintf("%v: still rendering when the batch budget expired", models.ErrTimeout),
				},
			}
		}
	}

	stats := Summarize(items)
	stats.WallTimeMs = time.Since(start).Milliseconds()

	log.Info("🎉 Mockup batch completed",
		"total", stats.Total, "generated", stats.GeneratedCount, "cached", stats.CachedCount,
		"failed", stats.FailedCount, "wallMs", stats.WallTimeMs)

	return &models.BatchResult{BatchID: batchID, Items: items, Stats: stats}, nil
}

func (g *Generator) renderWithRetry(ctx context.Context, tpl models.Template, design Design, cfg models.ResolvedConfig, format models.OutputFormat, quality int) models.BatchItem {
	var err error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		var res *models.RenderResult
		res, err = g.renderer.Render(ctx, tpl, design, cfg, format, quality)
		if err == nil {
			return models.BatchItem{TemplateID: tpl.ID, Result: res}
		}
		if models.IsDeterministic(err) || ctx.Err() != nil {
			break
		}
		if attempt < g.opts.Retries {
			g.log.Warn("⚠️  Retrying template render", "templateId", tpl.ID, "attempt", attempt+1, "error", err)
		}
	}

	g.log.Error("❌ Template render failed", "templateId", tpl.ID, "reason", models.ReasonFor(err), "error", err)
	return models.BatchItem{TemplateID: tpl.ID, Failure: models.NewFailure(tpl.ID, err)}
}

// Summarize aggregates batch items. Timing and cache counts cover successes only.
func Summarize(items []models.BatchItem) models.BatchStats {
	stats := models.BatchStats{Total: len(items)}
	for _, item := range items {
		if !item.OK() {
			stats.FailedCount++
			continue
		}
		if item.Result.FromCache {
			stats.CachedCount++
		} else {
			stats.GeneratedCount++
		}
		stats.TotalTimeMs += item.Result.RenderTimeMs
	}
	if ok := stats.CachedCount + stats.GeneratedCount; ok > 0 {
		stats.AverageTimeMs = stats.TotalTimeMs / int64(ok)
	}
	return stats
}
