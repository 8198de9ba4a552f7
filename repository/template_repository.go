package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// TemplatePostgresRepository reads template metadata from the mockup_templates table.
type TemplatePostgresRepository struct {
	db  *sql.DB
	log *logger.Logger
}

// NewTemplatePostgresRepository creates a new TemplatePostgresRepository
func NewTemplatePostgresRepository(db *sql.DB, log *logger.Logger) *TemplatePostgresRepository {
	return &TemplatePostgresRepository{
		db:  db,
		log: logger.OrNop(log).With("repository", "TemplatePostgresRepository"),
	}
}

// Ensure TemplatePostgresRepository implements TemplateRepositoryInterface
var _ TemplateRepositoryInterface = (*TemplatePostgresRepository)(nil)

// templateColumns are scanned in this order by scanTemplate.
var templateColumns = []string{
	"id",
	"product_category",
	"COALESCE(color_tag, '') AS color_tag",
	"COALESCE(angle_tag, '') AS angle_tag",
	"print_x",
	"print_y",
	"print_width",
	"print_height",
	"base_ref",
	"displacement_ref",
	"COALESCE(mask_ref, '') AS mask_ref",
	"COALESCE(shadow_ref, '') AS shadow_ref",
	"COALESCE(highlight_ref, '') AS highlight_ref",
	"COALESCE(texture_ref, '') AS texture_ref",
}

func loadTemplatesQuery() (string, []any, error) {
	return squirrel.Select(templateColumns...).
		From("mockup_templates").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("sort_order ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// LoadAll retrieves every active template. Rows that fail to scan are skipped.
func (r *TemplatePostgresRepository) LoadAll(ctx context.Context) ([]models.Template, error) {
	query, args, err := loadTemplatesQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to build templates query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("❌ Error querying mockup templates", "error", err)
		return nil, fmt.Errorf("%w: failed to query templates: %v", models.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			r.log.Warn("⚠️  Skipping unreadable template row", "error", err)
			continue
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("❌ Error iterating mockup templates", "error", err)
		return nil, fmt.Errorf("%w: failed to iterate templates: %v", models.ErrCatalogUnavailable, err)
	}

	r.log.Info("✓ Successfully fetched mockup templates", "count", len(templates))
	return templates, nil
}

func scanTemplate(row rowScanner) (models.Template, error) {
	var tpl models.Template
	var category string
	err := row.Scan(
		&tpl.ID,
		&category,
		&tpl.ColorTag,
		&tpl.AngleTag,
		&tpl.PrintArea.X,
		&tpl.PrintArea.Y,
		&tpl.PrintArea.Width,
		&tpl.PrintArea.Height,
		&tpl.LayerRefs.Base,
		&tpl.LayerRefs.Displacement,
		&tpl.LayerRefs.Mask,
		&tpl.LayerRefs.Shadow,
		&tpl.LayerRefs.Highlight,
		&tpl.LayerRefs.Texture,
	)
	if err != nil {
		return models.Template{}, err
	}
	parsed, ok := models.ParseProductCategory(category)
	if !ok {
		return models.Template{}, fmt.Errorf("template %s has unknown product category %q", tpl.ID, category)
	}
	tpl.ProductCategory = parsed
	return tpl, nil
}
