package service

import (
	"context"

	"soundprint-mockup/models"
)

// MockupServiceInterface defines the contract for mockup rendering operations
type MockupServiceInterface interface {
	// Generate renders a design across a category and optionally uploads the results.
	// Only design decode failures and an unavailable catalog are returned as errors.
	Generate(ctx context.Context, req models.GenerateMockupsRequest) (*models.GenerateMockupsResponse, error)
	// Preview renders a single template and returns the encoded bytes.
	Preview(ctx context.Context, req models.PreviewRequest) (*models.RenderResult, error)
	Templates(ctx context.Context, category models.ProductCategory) ([]models.Template, error)
	Stats() models.ServiceStats
}
