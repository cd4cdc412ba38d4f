package scans

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"greenlens/internal/contextutils"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// ScanController handles scan recording and history endpoints
type ScanController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewScanController creates a scan controller
func NewScanController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *ScanController {
	return &ScanController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// RecordScan handles POST /api/v1/scans
func (c *ScanController) RecordScan(w http.ResponseWriter, r *http.Request) {
	var req services.RecordScanRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		c.logger.Warn("Failed to decode record scan request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	req.UserID = contextutils.GetUserID(r.Context())

	result, err := c.serviceCollection.ScanService.RecordScan(r.Context(), &req)
	if err != nil {
		if services.IsScanNotRecorded(err) {
			w.Header().Set("Retry-After", "5")
		}
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteCreated(w, r, result)
}

// ListScans handles GET /api/v1/scans?limit=&offset=
func (c *ScanController) ListScans(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.ScanService.ListScans(r.Context(), &services.ListScansRequest{
		UserID: contextutils.GetUserID(r.Context()),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WritePage(w, r, page.Scans, page.Limit, page.Offset, page.Total)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.InvalidInputError(name, "must be an integer")
	}
	return n, nil
}
