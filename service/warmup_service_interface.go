package service

import (
	"context"

	"soundprint-mockup/models"
)

// WarmupServiceInterface defines the contract for pre-loading template layers
type WarmupServiceInterface interface {
	// WarmLayers resolves the layers of every template in category and reports which failed.
	// total = templates seen, resolved = decoded (or already cached), failures = one per broken template.
	WarmLayers(ctx context.Context, category models.ProductCategory) (*WarmupReport, error)
}
