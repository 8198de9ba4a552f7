package service

import (
	"context"
	"fmt"
	"time"

	"soundprint-mockup/layers"
	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/pregen"
)

// WarmupReport summarizes a layer warm-up pass.
type WarmupReport struct {
	Total     int                    `json:"total"`
	Resolved  int                    `json:"resolved"`
	Failures  []models.RenderFailure `json:"failures"`
	ElapsedMs int64                  `json:"elapsedMs"`
}

// WarmupService decodes template layers ahead of traffic so that the first batch does not pay
// for every decode, and surfaces broken templates early.
type WarmupService struct {
	templates pregen.TemplateSourceInterface
	layers    layers.StoreInterface
	log       *logger.Logger
}

// NewWarmupService creates a new WarmupService
func NewWarmupService(templates pregen.TemplateSourceInterface, store layers.StoreInterface, log *logger.Logger) *WarmupService {
	return &WarmupService{
		templates: templates,
		layers:    store,
		log:       logger.OrNop(log).With("component", "WarmupService"),
	}
}

// Ensure WarmupService implements WarmupServiceInterface
var _ WarmupServiceInterface = (*WarmupService)(nil)

func (s *WarmupService) WarmLayers(ctx context.Context, category models.ProductCategory) (*WarmupReport, error) {
	start := time.Now()
	s.log.Info("🔄 Starting layer warm-up", "category", category)

	templates, err := s.templates.FilterByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	report := &WarmupReport{Total: len(templates), Failures: []models.RenderFailure{}}
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := s.layers.Resolve(ctx, tpl); err != nil {
			s.log.Warn("❌ Template layers failed to resolve", "templateId", tpl.ID, "error", err)
			report.Failures = append(report.Failures, *models.NewFailure(tpl.ID, err))
			continue
		}
		report.Resolved++
	}

	report.ElapsedMs = time.Since(start).Milliseconds()
	s.log.Info("🎉 Layer warm-up completed",
		"resolved", report.Resolved, "failed", len(report.Failures), "total", report.Total, "ms", report.ElapsedMs)
	return report, nil
}
