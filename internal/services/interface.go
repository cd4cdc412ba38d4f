package services

import (
	"context"

	"github.com/gofrs/uuid"

	"greenlens/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// ProductService resolves barcodes into catalog products
type ProductService interface {
	// LookupProduct resolves a barcode through cache, store and catalog,
	// falling back to a default product when the catalog has none.
	LookupProduct(ctx context.Context, barcode string) (*models.ProductLookup, error)
	// ResolveForScan is LookupProduct without the outage fallback: an
	// unreachable catalog is an error.
	ResolveForScan(ctx context.Context, barcode string) (*models.Product, error)
	GetProduct(ctx context.Context, barcode string) (*models.Product, error)
	Alternatives(ctx context.Context, barcode string) ([]models.Alternative, error)
	// ForgetProduct drops the cached copy of a product whose row changed.
	ForgetProduct(ctx context.Context, barcode string)
}

// ScanService records scans and runs the progression engine
type ScanService interface {
	RecordScan(ctx context.Context, req *RecordScanRequest) (*models.ScanResult, error)
	ListScans(ctx context.Context, req *ListScansRequest) (*models.ScanPage, error)
}

// ChallengeService manages challenge enrollment and progress
type ChallengeService interface {
	ListChallenges(ctx context.Context) ([]*models.Challenge, error)
	AcceptChallenge(ctx context.Context, userID string, challengeID uuid.UUID) (*models.AcceptResult, error)
	ListUserChallenges(ctx context.Context, userID string) ([]models.ChallengeStatus, error)
	RefreshChallenge(ctx context.Context, userID string, challengeID uuid.UUID) (*models.ChallengeStatus, error)
}

// BadgeService exposes the badge catalog per user
type BadgeService interface {
	ListBadges(ctx context.Context) ([]models.Badge, error)
	ListUserBadges(ctx context.Context, userID string) ([]models.BadgeStatus, error)
}

// UserService exposes per-user progression summaries
type UserService interface {
	GetStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// ReconcileService repairs denormalized counters from scan history
type ReconcileService interface {
	ReconcileUser(ctx context.Context, userID string) (*ReconcileReport, error)
	ReconcileAll(ctx context.Context) ([]*ReconcileReport, error)
}
