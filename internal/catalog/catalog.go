// Package catalog defines the product-metadata record consumed from an
// external product database.
package catalog

import (
	"context"
	"errors"

	"greenlens/internal/carbon"
)

// ErrProductNotFound is returned when the catalog has no entry for a barcode.
var ErrProductNotFound = errors.New("product not found in catalog")

// ProductMetadata is what a catalog knows about one barcode. Optional
// fields are empty when the catalog did not supply them.
type ProductMetadata struct {
	Barcode       string
	Name          string
	Brand         string
	Category      string // first category segment
	RawCategories string
	Quantity      string
	Packaging     string
	Ingredients   string
	ImageURL      string
	NutriScore    string
	NovaLevel     int     // 0 when unknown
	Footprint100g float64 // g CO2e per 100 g, 0 when unknown
	Grade         string  // catalog eco grade, empty when unknown
}

// Provider resolves barcodes to metadata.
type Provider interface {
	LookupBarcode(ctx context.Context, barcode string) (*ProductMetadata, error)
}

// EstimatorInput maps the record onto the carbon estimator input.
func (m *ProductMetadata) EstimatorInput() carbon.Input {
	categories := m.RawCategories
	if categories == "" {
		categories = m.Category
	}
	return carbon.Input{
		Categories:  categories,
		Quantity:    m.Quantity,
		Packaging:   m.Packaging,
		Ingredients: m.Ingredients,
		Nova:        m.NovaLevel,
	}
}

// External returns the catalog supplied footprint and grade.
func (m *ProductMetadata) External() carbon.External {
	return carbon.External{FootprintPer100g: m.Footprint100g, Grade: m.Grade}
}

// Assess estimates footprint and grade for the record.
func (m *ProductMetadata) Assess() carbon.Assessment {
	return carbon.Assess(m.EstimatorInput(), m.External())
}
