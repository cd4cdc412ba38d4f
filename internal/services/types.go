package services

import (
	"github.com/gofrs/uuid"

	"greenlens/internal/models"
)

// ===============================
// SCAN SERVICE TYPES
// ===============================

// RecordScanRequest is a scan submitted by a user. Product details are
// optional; when absent the barcode is resolved through the catalog.
type RecordScanRequest struct {
	UserID          string     `json:"-" validate:"required,max=128"`
	Barcode         string     `json:"barcode" validate:"required,barcode"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"`
	ProductName     *string    `json:"product_name,omitempty" validate:"omitempty,max=255"`
	CarbonFootprint *float64   `json:"carbon_footprint,omitempty" validate:"omitempty,gte=0"`
}

// ListScansRequest pages a user's scan history
type ListScansRequest struct {
	UserID string `json:"-" validate:"required,max=128"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"offset" validate:"gte=0"`
}

const (
	defaultScanPageSize = 20
	maxScanPageSize     = 100
)

// ===============================
// RECONCILIATION TYPES
// ===============================

// ReconcileReport describes what a reconciliation run changed for a user
type ReconcileReport struct {
	UserID              string                 `json:"user_id"`
	ScanCountBefore     int                    `json:"scan_count_before"`
	ScanCountAfter      int                    `json:"scan_count_after"`
	EcoScanCountBefore  int                    `json:"eco_scan_count_before"`
	EcoScanCountAfter   int                    `json:"eco_scan_count_after"`
	Repaired            bool                   `json:"repaired"`
	CompletedChallenges []models.UserChallenge `json:"completed_challenges,omitempty"`
	NewBadges           []models.Badge         `json:"new_badges,omitempty"`
}
