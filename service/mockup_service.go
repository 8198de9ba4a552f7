package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"soundprint-mockup/compositor"
	"soundprint-mockup/layers"
	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/pregen"
	"soundprint-mockup/rendercache"
	"soundprint-mockup/storage"
	"soundprint-mockup/utils"
)

// CatalogInterface is the catalog surface the service needs.
type CatalogInterface interface {
	pregen.TemplateSourceInterface
	Get(ctx context.Context, id string) (models.Template, error)
	Len() int
}

// MockupServiceDeps wires a MockupService. Uploader may be nil when no storage is configured.
type MockupServiceDeps struct {
	Catalog        CatalogInterface
	Layers         layers.StoreInterface
	Cache          rendercache.CacheInterface
	Renderer       pregen.RendererInterface
	Generator      *pregen.Generator
	Uploader       storage.UploaderInterface
	UploadWorkers  int
	KeyPrefix      string
	MaxDesignBytes int64
}

// MockupService handles preview, batch generation and upload of product mockups
type MockupService struct {
	deps MockupServiceDeps
	log  *logger.Logger

	renders        atomic.Int64
	renderFailures atomic.Int64
	batches        atomic.Int64
	uploads        atomic.Int64
	uploadFailures atomic.Int64
	totalRenderMs  atomic.Int64
}

// NewMockupService creates a new MockupService instance
func NewMockupService(deps MockupServiceDeps, log *logger.Logger) *MockupService {
	if deps.UploadWorkers < 1 {
		deps.UploadWorkers = 1
	}
	return &MockupService{
		deps: deps,
		log:  logger.OrNop(log).With("component", "MockupService"),
	}
}

// Ensure MockupService implements MockupServiceInterface
var _ MockupServiceInterface = (*MockupService)(nil)

func (s *MockupService) Generate(ctx context.Context, req models.GenerateMockupsRequest) (*models.GenerateMockupsResponse, error) {
	category, ok := models.ParseCategoryFilter(req.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidRequest, req.Category)
	}
	format, ok := models.ParseOutputFormat(req.OutputFormat)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported output format %q", models.ErrInvalidRequest, req.OutputFormat)
	}

	res, err := s.deps.Generator.GenerateAll(ctx, models.BatchJob{
		Design:         req.Design,
		CategoryFilter: category,
		Config:         req.Config,
		OutputFormat:   format,
		OutputQuality:  req.OutputQuality,
	})
	if err != nil {
		return nil, err
	}

	s.batches.Add(1)
	entries := make([]models.MockupEntry, len(res.Items))
	for i, item := range res.Items {
		entries[i] = s.entryFor(item)
	}

	if req.UploadToStorage {
		s.uploadAll(ctx, res.Items, entries)
	}

	return &models.GenerateMockupsResponse{
		BatchID: res.BatchID,
		Mockups: entries,
		Stats:   res.Stats,
	}, nil
}

func (s *MockupService) entryFor(item models.BatchItem) models.MockupEntry {
	if !item.OK() {
		s.renderFailures.Add(1)
		return models.MockupEntry{
			TemplateID: item.TemplateID,
			Reason:     item.Failure.Reason,
			Error:      item.Failure.Message,
		}
	}
	s.recordRender(item.Result)
	return models.MockupEntry{
		TemplateID:   item.TemplateID,
		Cached:       item.Result.FromCache,
		RenderTimeMs: item.Result.RenderTimeMs,
	}
}

// uploadAll uploads every successful render. Upload failures are recorded per entry and never
// fail the batch.
func (s *MockupService) uploadAll(ctx context.Context, items []models.BatchItem, entries []models.MockupEntry) {
	if s.deps.Uploader == nil {
		for i, item := range items {
			if item.OK() {
				entries[i].UploadError = "no storage backend configured"
			}
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(s.deps.UploadWorkers)
	for i, item := range items {
		if !item.OK() {
			continue
		}
		i, result := i, item.Result
		g.Go(func() error {
			url, err := s.upload(ctx, result)
			if err != nil {
				entries[i].UploadError = err.Error()
				return nil
			}
			entries[i].URL = &url
			return nil
		})
	}
	_ = g.Wait()
}

func (s *MockupService) upload(ctx context.Context, result *models.RenderResult) (string, error) {
	format := string(result.OutputFormat)
	key := storage.ObjectKey(s.deps.KeyPrefix, result.TemplateID, result.OutputBytes, format)

	url, err := s.deps.Uploader.Upload(ctx, key, result.OutputBytes, utils.ContentTypeForFormat(format))
	if err != nil {
		s.uploadFailures.Add(1)
		s.log.Warn("⚠️  Mockup upload failed", "templateId", result.TemplateID, "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", models.ErrUpload, err)
	}
	s.uploads.Add(1)
	return url, nil
}

func (s *MockupService) Preview(ctx context.Context, req models.PreviewRequest) (*models.RenderResult, error) {
	rr, err := req.RenderRequest()
	if err != nil {
		return nil, err
	}

	tpl, err := s.deps.Catalog.Get(ctx, rr.TemplateID)
	if err != nil {
		return nil, err
	}

	design, err := pregen.NewDesign(rr.Design, s.deps.MaxDesignBytes)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Renderer.Render(ctx, tpl, design, rr.Config.Resolve(), rr.OutputFormat, rr.OutputQuality)
	if err != nil {
		s.renderFailures.Add(1)
		s.log.Warn("❌ Preview render failed", "templateId", tpl.ID, "reason", models.ReasonFor(err), "error", err)
		return nil, err
	}
	s.recordRender(res)

	if req.Size == "" {
		return res, nil
	}
	return s.thumbnail(res, req.Size)
}

// thumbnail derives a downsized copy; the cached render stays full size.
func (s *MockupService) thumbnail(res *models.RenderResult, size string) (*models.RenderResult, error) {
	if _, _, ok := compositor.ThumbnailSpec(size); !ok {
		s.log.Warn("⚠️  Unknown thumbnail size, defaulting to medium", "size", size)
	}
	data, err := compositor.Thumbnail(res.OutputBytes, size)
	if err != nil {
		return nil, err
	}
	thumb := *res
	thumb.OutputBytes = data
	thumb.OutputFormat = models.FormatJPEG
	return &thumb, nil
}

func (s *MockupService) Templates(ctx context.Context, category models.ProductCategory) ([]models.Template, error) {
	return s.deps.Catalog.FilterByCategory(ctx, category)
}

func (s *MockupService) Stats() models.ServiceStats {
	stats := models.ServiceStats{
		Templates: s.deps.Catalog.Len(),
		Throughput: models.ThroughputStats{
			Renders:        s.renders.Load(),
			RenderFailures: s.renderFailures.Load(),
			Batches:        s.batches.Load(),
			Uploads:        s.uploads.Load(),
			UploadFailures: s.uploadFailures.Load(),
			TotalRenderMs:  s.totalRenderMs.Load(),
		},
	}
	if s.deps.Layers != nil {
		stats.LayerCache = s.deps.Layers.Stats()
	}
	if s.deps.Cache != nil {
		stats.RenderCache = s.deps.Cache.Stats()
	}
	if b, ok := s.deps.Uploader.(interface{ State() string }); ok {
		stats.Storage = b.State()
	}
	if stats.Throughput.Renders > 0 {
		stats.Throughput.AverageRenderMs = stats.Throughput.TotalRenderMs / stats.Throughput.Renders
	}
	return stats
}

func (s *MockupService) recordRender(res *models.RenderResult) {
	s.renders.Add(1)
	s.totalRenderMs.Add(res.RenderTimeMs)
}
