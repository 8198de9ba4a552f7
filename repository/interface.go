package repository

import (
	"context"

	"soundprint-mockup/models"
)

// TemplateRepositoryInterface defines the contract for template metadata sources.
// LoadAll fails only when the store itself is unreadable; unparseable entries are skipped.
type TemplateRepositoryInterface interface {
	LoadAll(ctx context.Context) ([]models.Template, error)
}
