package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// BadgeCriteria names the aggregate counter a badge threshold applies to.
type BadgeCriteria string

const (
	BadgeScansTotal  BadgeCriteria = "scans_total"
	BadgeStreakDays  BadgeCriteria = "streak_days"
	BadgeEcoProducts BadgeCriteria = "eco_products"
	BadgePointsTotal BadgeCriteria = "points_total"
)

// Valid reports whether c is one of the known criteria types.
func (c BadgeCriteria) Valid() bool {
	switch c {
	case BadgeScansTotal, BadgeStreakDays, BadgeEcoProducts, BadgePointsTotal:
		return true
	}
	return false
}

// Badge represents a permanent achievement unlocked when a counter
// reaches CriteriaValue.
type Badge struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Icon          string        `json:"icon" db:"icon"`
	CriteriaType  BadgeCriteria `json:"criteria_type" db:"criteria_type"`
	CriteriaValue int           `json:"criteria_value" db:"criteria_value"`
	DisplayOrder  int           `json:"display_order" db:"display_order"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// UserBadge marks a badge as earned. At most one exists per (user, badge).
type UserBadge struct {
	UserID   string    `json:"user_id" db:"user_id"`
	BadgeID  uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

// BadgeStatus is the per-badge view returned to users.
type BadgeStatus struct {
	Badge    *Badge     `json:"badge"`
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}
