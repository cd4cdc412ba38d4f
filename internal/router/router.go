package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"greenlens/internal/handlers/api/v1/challenges"
	"greenlens/internal/handlers/api/v1/products"
	"greenlens/internal/handlers/api/v1/scans"
	"greenlens/internal/handlers/api/v1/users"
	"greenlens/internal/middleware"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// healthCheckTimeout bounds the dependency probes of GET /health
const healthCheckTimeout = 5 * time.Second

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(
	serviceCollection *services.ServiceCollection,
	responseBuilder *response.Builder,
	corsOrigin string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(logger))
	r.Use(middleware.EnhancedLogging)
	r.Use(middleware.RecoverPanic(responseBuilder))
	r.Use(middleware.CORS(corsOrigin))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responseBuilder.WriteError(w, req, services.NewNotFoundError("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		err := services.NewValidationError("method not allowed", nil)
		err.StatusCode = http.StatusMethodNotAllowed
		responseBuilder.WriteError(w, req, err)
	})

	r.Get("/health", healthHandler(serviceCollection, responseBuilder))

	AddAPIv1Routes(r, serviceCollection, responseBuilder, logger)

	logger.Info("Router setup completed")
	return r
}

// AddAPIv1Routes mounts the /api/v1 surface. Catalog reads are public;
// everything tied to a user requires the X-User-ID header.
func AddAPIv1Routes(
	r chi.Router,
	serviceCollection *services.ServiceCollection,
	responseBuilder *response.Builder,
	logger *zap.Logger,
) {
	productController := products.NewProductController(serviceCollection, logger, responseBuilder)
	scanController := scans.NewScanController(serviceCollection, logger, responseBuilder)
	challengeController := challenges.NewChallengeController(serviceCollection, logger, responseBuilder)
	userController := users.NewUserController(serviceCollection, logger, responseBuilder)

	r.Route("/api/v1", func(r chi.Router) {
		// ===============================
		// PUBLIC CATALOG ENDPOINTS
		// ===============================
		r.Post("/products/lookup", productController.Lookup)
		r.Get("/products/{barcode}", productController.GetProduct)
		r.Get("/products/{barcode}/alternatives", productController.Alternatives)
		r.Get("/challenges", challengeController.ListChallenges)
		r.Get("/badges", userController.ListBadges)

		// ===============================
		// USER ENDPOINTS
		// ===============================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(responseBuilder))

			r.Post("/scans", scanController.RecordScan)
			r.Get("/scans", scanController.ListScans)

			r.Get("/challenges/me", challengeController.ListMine)
			r.Post("/challenges/me", challengeController.Accept)
			r.Put("/challenges/{id}/progress", challengeController.RefreshProgress)

			r.Get("/badges/me", userController.ListMyBadges)
			r.Get("/users/me/stats", userController.GetStats)
		})
	})
}

func healthHandler(serviceCollection *services.ServiceCollection, responseBuilder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		health := serviceCollection.HealthCheck(ctx)
		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		responseBuilder.WriteJSON(w, r, responseBuilder.Success(r.Context(), health), status)
	}
}
