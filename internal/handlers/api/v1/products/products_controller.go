package products

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// ProductController handles product lookup endpoints
type ProductController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewProductController creates a product controller
func NewProductController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ProductController {
	return &ProductController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// LookupRequest is the body of POST /api/v1/products/lookup
type LookupRequest struct {
	Barcode string `json:"barcode"`
}

// Lookup handles POST /api/v1/products/lookup
func (c *ProductController) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	lookup, err := c.serviceCollection.ProductService.LookupProduct(r.Context(), req.Barcode)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	if lookup.Source == models.SourceFallback {
		c.logger.Info("Served fallback product", zap.String("barcode", req.Barcode))
	}
	c.responseBuilder.WriteSuccess(w, r, lookup)
}

// GetProduct handles GET /api/v1/products/{barcode}
func (c *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := c.serviceCollection.ProductService.GetProduct(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, product)
}

// AlternativesResponse lists lower-impact substitutes of a product
type AlternativesResponse struct {
	Barcode      string               `json:"barcode"`
	Alternatives []models.Alternative `json:"alternatives"`
}

// Alternatives handles GET /api/v1/products/{barcode}/alternatives
func (c *ProductController) Alternatives(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	alternatives, err := c.serviceCollection.ProductService.Alternatives(r.Context(), barcode)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, AlternativesResponse{Barcode: barcode, Alternatives: alternatives})
}
