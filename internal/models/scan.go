package models

import (
	"time"

	"github.com/gofrs/uuid"

	"greenlens/internal/carbon"
)

// Scan is one append-only scan event.
type Scan struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	ProductID       *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	Barcode         string     `json:"barcode" db:"barcode"`
	ProductName     string     `json:"product_name" db:"product_name"`
	CarbonFootprint float64    `json:"carbon_footprint" db:"carbon_footprint"`
	PointsEarned    int        `json:"points_earned" db:"points_earned"`
	ScannedAt       time.Time  `json:"scanned_at" db:"scanned_at"`
}

// ScanEvent is the input to recording a scan. The product fields are the
// already resolved identity of the scanned barcode.
type ScanEvent struct {
	UserID          string
	Barcode         string
	ProductID       *uuid.UUID
	ProductName     string
	CarbonFootprint float64
	EcoScore        carbon.Grade
}

// ScanResult is what a recorded scan returns to the presentation layer.
type ScanResult struct {
	Scan                *Scan               `json:"scan"`
	EcoScore            carbon.Grade        `json:"eco_score"`
	PointsEarned        int                 `json:"points_earned"`
	TotalPoints         int                 `json:"total_points"`
	Streak              int                 `json:"streak"`
	NewBadges           []Badge             `json:"new_badges"`
	CompletedChallenges []UserChallenge     `json:"completed_challenges,omitempty"`
	Comparisons         []carbon.Comparison `json:"comparisons,omitempty"`
}

// ScanPage is a page of a user's scan history.
type ScanPage struct {
	Scans  []Scan `json:"scans"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
