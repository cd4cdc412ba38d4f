package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"greenlens/internal/cache"
	"greenlens/internal/catalog"
	"greenlens/internal/catalog/openfoodfacts"
	"greenlens/internal/config"
	"greenlens/internal/database"
	"greenlens/internal/repositories"
)

// ServiceCollection holds all services with dependency injection
type ServiceCollection struct {
	// Core Services
	ProductService   ProductService   `json:"-"`
	ScanService      ScanService      `json:"-"`
	ChallengeService ChallengeService `json:"-"`
	BadgeService     BadgeService     `json:"-"`
	UserService      UserService      `json:"-"`
	ReconcileService ReconcileService `json:"-"`

	// Repository Collection
	Repositories *repositories.Collection `json:"-"`

	// Infrastructure Components
	Cache     cache.Cache       `json:"-"`
	Catalog   catalog.Provider  `json:"-"`
	Logger    *zap.Logger       `json:"-"`
	Config    *config.Config    `json:"-"`
	DBManager *database.Manager `json:"-"`

	dependencies map[string]HealthChecker
	startTime    time.Time
}

// HealthChecker is implemented by dependencies that can report liveness
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Uptime       string                   `json:"uptime"`
}

// ServiceStatus represents the status of an individual dependency
type ServiceStatus struct {
	Name         string `json:"name"`
	Status       string `json:"status"` // healthy, unhealthy
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// NewServiceCollection wires infrastructure, repositories and services
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	repos, err := repositories.NewCollection(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	productCache := initializeCache(cfg.Cache, logger)
	provider := initializeCatalog(cfg.Catalog, logger)

	collection := NewServiceCollectionWithRepositories(repos, productCache, provider, cfg, logger)
	collection.DBManager = dbManager
	collection.dependencies["database"] = dbManager

	logger.Info("Service collection initialized successfully",
		zap.String("cache_provider", cfg.Cache.Provider),
		zap.Bool("catalog_enabled", provider != nil),
	)
	return collection, nil
}

// NewServiceCollectionWithRepositories builds the services on an existing
// repository collection. productCache and provider may be nil.
func NewServiceCollectionWithRepositories(
	repos *repositories.Collection,
	productCache cache.Cache,
	provider catalog.Provider,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceCollection {
	sc := &ServiceCollection{
		Repositories: repos,
		Cache:        productCache,
		Catalog:      provider,
		Logger:       logger,
		Config:       cfg,
		dependencies: make(map[string]HealthChecker),
		startTime:    time.Now(),
	}
	if productCache != nil {
		sc.dependencies["cache"] = productCache
	}

	sc.ProductService = NewProductService(repos.Product, provider, productCache, cfg.Progression, logger)
	sc.ScanService = NewScanService(repos, sc.ProductService, cfg.Progression, logger)
	sc.ChallengeService = NewChallengeService(repos, logger)
	sc.BadgeService = NewBadgeService(repos.Badge, logger)
	sc.UserService = NewUserService(repos, logger)
	sc.ReconcileService = NewReconcileService(repos, logger)

	return sc
}

// ===============================
// INITIALIZATION HELPERS
// ===============================

// initializeCache falls back to the in-memory cache when Redis is
// unreachable at startup
func initializeCache(cfg config.CacheConfig, logger *zap.Logger) cache.Cache {
	c, err := cache.NewCache(cache.FromAppConfig(cfg), logger)
	if err == nil {
		return c
	}

	logger.Warn("Cache provider unavailable, using in-memory cache",
		zap.String("provider", cfg.Provider),
		zap.Error(err),
	)
	memCfg := cache.FromAppConfig(cfg)
	memCfg.Provider = "memory"
	return cache.NewMemoryCache(memCfg, logger)
}

func initializeCatalog(cfg config.CatalogConfig, logger *zap.Logger) catalog.Provider {
	if !cfg.Enabled {
		logger.Info("Product catalog disabled; unknown barcodes use the fallback product")
		return nil
	}
	return openfoodfacts.New(cfg.BaseURL, cfg.UserAgent, cfg.Timeout, cfg.MaxRetries, logger.Named("openfoodfacts"))
}

// ===============================
// HEALTH AND LIFECYCLE
// ===============================

// HealthCheck pings every registered dependency
func (sc *ServiceCollection) HealthCheck(ctx context.Context) *ServiceHealth {
	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Dependencies: make(map[string]ServiceStatus, len(sc.dependencies)),
		Uptime:       time.Since(sc.startTime).Round(time.Second).String(),
	}

	for name, dep := range sc.dependencies {
		start := time.Now()
		status := ServiceStatus{Name: name, Status: "healthy"}
		if err := dep.Health(ctx); err != nil {
			status.Status = "unhealthy"
			status.Error = err.Error()
			health.Status = "unhealthy"
		}
		status.ResponseTime = time.Since(start).String()
		health.Dependencies[name] = status
	}

	if health.Status != "healthy" {
		sc.Logger.Warn("Health check failed", zap.Any("dependencies", health.Dependencies))
	}
	return health
}

// Shutdown releases infrastructure held by the collection
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("Shutting down service collection")

	var shutdownErrors []error
	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
		}
	}
	if sc.DBManager != nil {
		if err := sc.DBManager.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		sc.Logger.Error("Errors occurred during shutdown",
			zap.Int("error_count", len(shutdownErrors)),
			zap.Errors("errors", shutdownErrors),
		)
		return fmt.Errorf("shutdown completed with %d errors", len(shutdownErrors))
	}

	sc.Logger.Info("Service collection shutdown completed successfully")
	return nil
}
