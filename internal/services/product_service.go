package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"greenlens/internal/cache"
	"greenlens/internal/carbon"
	"greenlens/internal/catalog"
	"greenlens/internal/config"
	"greenlens/internal/models"
	"greenlens/internal/repositories"
	"greenlens/internal/validation"
)

// productService implements ProductService
type productService struct {
	productRepo repositories.ProductRepository
	catalog     catalog.Provider
	cache       cache.Cache
	config      config.ProgressionConfig
	logger      *zap.Logger
	lookups     singleflight.Group
}

// NewProductService creates a product service. provider and cache may be
// nil when the catalog or the cache is disabled.
func NewProductService(
	productRepo repositories.ProductRepository,
	provider catalog.Provider,
	cache cache.Cache,
	cfg config.ProgressionConfig,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		catalog:     provider,
		cache:       cache,
		config:      cfg,
		logger:      logger,
	}
}

// ===============================
// LOOKUP
// ===============================

// LookupProduct resolves a barcode for display. Catalog outages degrade to
// the fallback product.
func (s *productService) LookupProduct(ctx context.Context, barcode string) (*models.ProductLookup, error) {
	if !validation.IsBarcode(barcode) {
		return nil, InvalidInputError("barcode", "must be 8 to 14 digits")
	}

	lookup, err := s.resolve(ctx, barcode, false)
	if err != nil {
		return nil, err
	}
	lookup.Comparisons = carbon.Comparisons(lookup.Product.CarbonFootprint)
	return lookup, nil
}

// ResolveForScan resolves the product a scan refers to
func (s *productService) ResolveForScan(ctx context.Context, barcode string) (*models.Product, error) {
	lookup, err := s.resolve(ctx, barcode, true)
	if err != nil {
		return nil, err
	}
	return lookup.Product, nil
}

// resolve walks cache, store and catalog. With strict set a catalog that
// cannot be reached is an error instead of a fallback.
func (s *productService) resolve(ctx context.Context, barcode string, strict bool) (*models.ProductLookup, error) {
	if product := s.cached(ctx, barcode); product != nil {
		return &models.ProductLookup{Product: product, Source: models.SourceCache}, nil
	}

	stored, err := s.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, NewServiceUnavailableError("product store unavailable", err)
	}
	if stored != nil {
		s.store(ctx, stored)
		return &models.ProductLookup{Product: stored, Source: models.SourceCache}, nil
	}

	lookup, err := s.fetchShared(ctx, barcode)
	var unavailable *catalogUnavailableError
	if errors.As(err, &unavailable) {
		if strict {
			return nil, NewServiceUnavailableError("product catalog unavailable", unavailable.cause)
		}
		// not persisted, so the next lookup asks the catalog again
		s.logger.Warn("Product catalog unavailable, using fallback",
			zap.String("barcode", barcode),
			zap.Error(unavailable.cause),
		)
		return &models.ProductLookup{Product: s.fallbackProduct(barcode), Source: models.SourceFallback}, nil
	}
	if err != nil {
		return nil, err
	}
	return lookup, nil
}

// catalogUnavailableError marks a catalog that could not be reached. Each
// caller of a shared fetch decides how to degrade.
type catalogUnavailableError struct {
	cause error
}

func (e *catalogUnavailableError) Error() string {
	return "product catalog unavailable: " + e.cause.Error()
}

func (e *catalogUnavailableError) Unwrap() error {
	return e.cause
}

// fetchShared runs one catalog fetch per barcode for all concurrent callers.
// The fetch is detached from the first caller's cancellation; each caller
// stops waiting when its own context ends.
func (s *productService) fetchShared(ctx context.Context, barcode string) (*models.ProductLookup, error) {
	flight := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(barcode, func() (interface{}, error) {
		return s.fetch(flight, barcode)
	})

	select {
	case <-ctx.Done():
		return nil, NewServiceUnavailableError("product lookup cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		lookup := *res.Val.(*models.ProductLookup)
		return &lookup, nil
	}
}

// fetch asks the catalog and persists what it learned. An unreachable
// catalog is reported as *catalogUnavailableError.
func (s *productService) fetch(ctx context.Context, barcode string) (*models.ProductLookup, error) {
	meta, err := s.lookupCatalog(ctx, barcode)
	switch {
	case err == nil:
		product := productFromMetadata(meta)
		saved, err := s.persist(ctx, product)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Product added from catalog",
			zap.String("barcode", barcode),
			zap.Float64("carbon_footprint", saved.CarbonFootprint),
			zap.String("eco_score", string(saved.EcoScore)),
		)
		return &models.ProductLookup{Product: saved, Source: models.SourceCatalog}, nil

	case errors.Is(err, catalog.ErrProductNotFound):
		saved, err := s.persist(ctx, s.fallbackProduct(barcode))
		if err != nil {
			return nil, err
		}
		return &models.ProductLookup{Product: saved, Source: models.SourceFallback}, nil

	default:
		return nil, &catalogUnavailableError{cause: err}
	}
}

func (s *productService) lookupCatalog(ctx context.Context, barcode string) (*catalog.ProductMetadata, error) {
	if s.catalog == nil {
		return nil, catalog.ErrProductNotFound
	}
	return s.catalog.LookupBarcode(ctx, barcode)
}

// persist inserts product unless another request already did, and returns
// the stored row
func (s *productService) persist(ctx context.Context, product *models.Product) (*models.Product, error) {
	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, NewServiceUnavailableError("failed to save product", err)
	}
	if !created {
		existing, err := s.productRepo.GetByBarcode(ctx, product.Barcode)
		if err != nil {
			return nil, NewServiceUnavailableError("product store unavailable", err)
		}
		if existing == nil {
			return nil, NewInternalError("product vanished after insert conflict", nil)
		}
		product = existing
	}
	s.store(ctx, product)
	return product, nil
}

func (s *productService) fallbackProduct(barcode string) *models.Product {
	footprint := s.config.FallbackFootprint
	return &models.Product{
		Barcode:         barcode,
		Name:            fmt.Sprintf("Product %s", barcode),
		CarbonFootprint: footprint,
		EcoScore:        carbon.GradeFor(footprint, s.config.FallbackWeightKg),
	}
}

func productFromMetadata(meta *catalog.ProductMetadata) *models.Product {
	assessment := meta.Assess()

	product := &models.Product{
		Barcode:         meta.Barcode,
		Name:            meta.Name,
		Brand:           optional(meta.Brand),
		Category:        optional(meta.Category),
		RawCategories:   optional(meta.RawCategories),
		Packaging:       optional(meta.Packaging),
		Quantity:        optional(meta.Quantity),
		Ingredients:     optional(meta.Ingredients),
		ImageURL:        optional(meta.ImageURL),
		NutriScore:      optional(meta.NutriScore),
		CarbonFootprint: assessment.FootprintKg,
		EcoScore:        assessment.Grade,
	}
	if carbon.ValidNova(meta.NovaLevel) {
		nova := meta.NovaLevel
		product.NovaGroup = &nova
	}
	return product
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ===============================
// STORED PRODUCTS
// ===============================

// GetProduct returns a product already in the store
func (s *productService) GetProduct(ctx context.Context, barcode string) (*models.Product, error) {
	if !validation.IsBarcode(barcode) {
		return nil, InvalidInputError("barcode", "must be 8 to 14 digits")
	}

	if product := s.cached(ctx, barcode); product != nil {
		return product, nil
	}

	product, err := s.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, NewServiceUnavailableError("product store unavailable", err)
	}
	if product == nil {
		return nil, EntityNotFoundError("product", barcode)
	}
	s.store(ctx, product)
	return product, nil
}

// ===============================
// CACHE HELPERS
// ===============================

func productCacheKey(barcode string) string {
	return "product:" + barcode
}

// ForgetProduct evicts barcode so the next read sees the stored row
func (s *productService) ForgetProduct(ctx context.Context, barcode string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productCacheKey(barcode)); err != nil {
		s.logger.Warn("Product cache eviction failed", zap.String("barcode", barcode), zap.Error(err))
	}
}

func (s *productService) cached(ctx context.Context, barcode string) *models.Product {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, productCacheKey(barcode))
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.String("barcode", barcode), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		s.logger.Warn("Discarding undecodable cached product", zap.String("barcode", barcode), zap.Error(err))
		_ = s.cache.Delete(ctx, productCacheKey(barcode))
		return nil
	}
	return &product
}

func (s *productService) store(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		s.logger.Warn("Failed to encode product for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, productCacheKey(product.Barcode), data, 0); err != nil {
		s.logger.Warn("Product cache write failed", zap.String("barcode", product.Barcode), zap.Error(err))
	}
}
