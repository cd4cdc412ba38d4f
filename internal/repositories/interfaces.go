package repositories

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"greenlens/internal/carbon"
	"greenlens/internal/models"
)

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================

// Transactor runs fn in one database transaction. Repository calls made
// with the context handed to fn take part in it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository defines the contract for catalog data operations
type ProductRepository interface {
	// Create inserts a product unless its barcode already exists. created
	// reports whether this call inserted the row.
	Create(ctx context.Context, product *models.Product) (created bool, err error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	IncrementScanCount(ctx context.Context, id uuid.UUID) error
	FindAlternatives(ctx context.Context, query AlternativeQuery) ([]*models.Product, error)
}

// AlternativeQuery selects lower-impact substitutes. Category matches are
// case-insensitive substrings; when both are set either may match.
type AlternativeQuery struct {
	CategoryContains    string
	RawCategoryContains string
	FootprintBelow      float64
	Grades              []carbon.Grade
	ExcludeBarcodes     []string
	Limit               int
}

// ScanRepository defines the contract for the append-only scan log
type ScanRepository interface {
	Create(ctx context.Context, scan *models.Scan) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Scan, int, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	CountScansInCategory(ctx context.Context, userID, keyword string) (int, error)
	CountScansWithGrades(ctx context.Context, userID string, grades []carbon.Grade) (int, error)
}

// UserRepository defines the contract for per-user progression counters
type UserRepository interface {
	// EnsureProgress creates an empty progress row if none exists.
	EnsureProgress(ctx context.Context, userID string) (created bool, err error)
	GetProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	// LockProgress reads the row with a write lock held until the
	// surrounding transaction ends. A missing row wraps ErrNotFound.
	LockProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	ApplyScan(ctx context.Context, userID string, update models.ProgressUpdate) (*models.UserProgress, error)
	AddPoints(ctx context.Context, userID string, points int) (int, error)
	SetScanCounters(ctx context.Context, userID string, scanCount, ecoScanCount int) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ChallengeRepository defines the contract for the challenge catalog and
// enrollments
type ChallengeRepository interface {
	ListActive(ctx context.Context) ([]*models.Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	Upsert(ctx context.Context, challenge *models.Challenge) error

	Enroll(ctx context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, bool, error)
	GetEnrollment(ctx context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, error)
	ListEnrollments(ctx context.Context, userID string) ([]*models.UserChallenge, error)
	ListOpenEnrollments(ctx context.Context, userID string) ([]*models.UserChallenge, error)
	UpdateProgress(ctx context.Context, enrollmentID uuid.UUID, progress int) error
	// MarkCompleted flips an open enrollment to completed. It reports false
	// when the enrollment was already completed.
	MarkCompleted(ctx context.Context, enrollmentID uuid.UUID, progress int, at time.Time) (bool, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
}

// BadgeRepository defines the contract for the badge catalog and awards
type BadgeRepository interface {
	List(ctx context.Context) ([]models.Badge, error)
	Upsert(ctx context.Context, badge *models.Badge) error
	ListEarned(ctx context.Context, userID string) ([]models.UserBadge, error)
	// Award records an earned badge and reports whether this call created it.
	Award(ctx context.Context, userID string, badgeID uuid.UUID, at time.Time) (bool, error)
	CountEarned(ctx context.Context, userID string) (int, error)
}
