package challenges

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/contextutils"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// ChallengeController handles challenge catalog and enrollment endpoints
type ChallengeController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewChallengeController creates a challenge controller
func NewChallengeController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ChallengeController {
	return &ChallengeController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// AcceptRequest is the body of POST /api/v1/challenges/me
type AcceptRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// ListChallenges handles GET /api/v1/challenges
func (c *ChallengeController) ListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := c.serviceCollection.ChallengeService.ListChallenges(r.Context())
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, challenges)
}

// ListMine handles GET /api/v1/challenges/me
func (c *ChallengeController) ListMine(w http.ResponseWriter, r *http.Request) {
	statuses, err := c.serviceCollection.ChallengeService.ListUserChallenges(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, statuses)
}

// Accept handles POST /api/v1/challenges/me. A repeated accept answers
// 200 with already_accepted set; a new enrollment answers 201.
func (c *ChallengeController) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		c.logger.Warn("Failed to decode accept challenge request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	challengeID, err := parseID(req.ChallengeID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	result, err := c.serviceCollection.ChallengeService.AcceptChallenge(r.Context(), contextutils.GetUserID(r.Context()), challengeID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	if result.AlreadyAccepted {
		c.responseBuilder.WriteSuccess(w, r, result)
		return
	}
	c.responseBuilder.WriteCreated(w, r, result)
}

// RefreshProgress handles PUT /api/v1/challenges/{id}/progress
func (c *ChallengeController) RefreshProgress(w http.ResponseWriter, r *http.Request) {
	challengeID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	status, err := c.serviceCollection.ChallengeService.RefreshChallenge(r.Context(), contextutils.GetUserID(r.Context()), challengeID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, status)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, services.InvalidInputError("challenge_id", "must be a UUID")
	}
	return id, nil
}
