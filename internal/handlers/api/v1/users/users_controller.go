package users

import (
	"net/http"

	"go.uber.org/zap"

	"greenlens/internal/contextutils"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// UserController serves the caller's progression views
type UserController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewUserController creates a user controller
func NewUserController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *UserController {
	return &UserController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// GetStats handles GET /api/v1/users/me/stats
func (c *UserController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.serviceCollection.UserService.GetStats(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, stats)
}

// ListBadges handles GET /api/v1/badges
func (c *UserController) ListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := c.serviceCollection.BadgeService.ListBadges(r.Context())
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, badges)
}

// ListMyBadges handles GET /api/v1/badges/me
func (c *UserController) ListMyBadges(w http.ResponseWriter, r *http.Request) {
	statuses, err := c.serviceCollection.BadgeService.ListUserBadges(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, statuses)
}
