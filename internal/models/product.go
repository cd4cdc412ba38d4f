package models

import (
	"time"

	"github.com/gofrs/uuid"

	"greenlens/internal/carbon"
)

// ===============================
// PRODUCT CATALOG
// ===============================

// Product is a catalog entry identified by its barcode. Footprint and grade
// are computed once when the product is first looked up.
type Product struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	Barcode         string       `json:"barcode" db:"barcode"`
	Name            string       `json:"name" db:"name"`
	Brand           *string      `json:"brand,omitempty" db:"brand"`
	Category        *string      `json:"category,omitempty" db:"category"`
	RawCategories   *string      `json:"raw_categories,omitempty" db:"raw_categories"`
	Packaging       *string      `json:"packaging,omitempty" db:"packaging"`
	Quantity        *string      `json:"quantity,omitempty" db:"quantity"`
	NovaGroup       *int         `json:"nova_group,omitempty" db:"nova_group"`
	Ingredients     *string      `json:"ingredients,omitempty" db:"ingredients"`
	ImageURL        *string      `json:"image_url,omitempty" db:"image_url"`
	NutriScore      *string      `json:"nutri_score,omitempty" db:"nutri_score"`
	CarbonFootprint float64      `json:"carbon_footprint" db:"carbon_footprint"`
	EcoScore        carbon.Grade `json:"eco_score" db:"eco_score"`
	ScanCount       int          `json:"scan_count" db:"scan_count"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// PrimaryCategory returns the first segment of the stored category hierarchy.
func (p *Product) PrimaryCategory() string {
	if p.Category == nil {
		return ""
	}
	return carbon.PrimarySegment(*p.Category)
}

// LookupSource tells the caller where a looked-up product came from.
type LookupSource string

const (
	SourceCache    LookupSource = "cache"
	SourceCatalog  LookupSource = "api"
	SourceFallback LookupSource = "fallback"
)

// ProductLookup is the result of resolving a barcode.
type ProductLookup struct {
	Product     *Product            `json:"product"`
	Source      LookupSource        `json:"source"`
	Comparisons []carbon.Comparison `json:"comparisons,omitempty"`
}

// Alternative is a lower-impact substitute for a product.
type Alternative struct {
	Product         *Product `json:"product"`
	CarbonReduction int      `json:"carbon_reduction"`
}
