package models

import "time"

// UserProgress holds the per-user counters the progression engine mutates.
// ScanCount and EcoScanCount are running counters maintained next to the
// scan insert; reconciliation recomputes them from the scan history.
type UserProgress struct {
	UserID       string     `json:"user_id" db:"user_id"`
	TotalPoints  int        `json:"total_points" db:"total_points"`
	StreakDays   int        `json:"streak_days" db:"streak_days"`
	LastScanDate *time.Time `json:"last_scan_date,omitempty" db:"last_scan_date"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	ScanCount    int        `json:"scan_count" db:"scan_count"`
	EcoScanCount int        `json:"eco_scan_count" db:"eco_scan_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Level is derived from points: every 100 points is one level.
func (p *UserProgress) Level() int {
	return p.TotalPoints/100 + 1
}

// ProgressUpdate carries the counter changes of one recorded scan.
type ProgressUpdate struct {
	PointsDelta  int
	StreakDays   *int
	LastScanDate time.Time
	LastActiveAt time.Time
	EcoScan      bool
}

// UserStats summarizes a user's progression for display.
type UserStats struct {
	UserID              string     `json:"user_id"`
	Level               int        `json:"level"`
	TotalPoints         int        `json:"total_points"`
	StreakDays          int        `json:"streak_days"`
	LastScanDate        *time.Time `json:"last_scan_date,omitempty"`
	ScanCount           int        `json:"scan_count"`
	EcoFriendlyScans    int        `json:"eco_friendly_scans"`
	CompletedChallenges int        `json:"completed_challenges"`
	EarnedBadges        int        `json:"earned_badges"`
}
