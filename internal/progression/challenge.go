package progression

import (
	"context"
	"fmt"
	"slices"

	"greenlens/internal/carbon"
	"greenlens/internal/models"
)

// Counters is a snapshot of a user's aggregate counters.
type Counters struct {
	ScanCount    int
	EcoScanCount int
	StreakDays   int
	TotalPoints  int
}

// CountersOf snapshots stored progress.
func CountersOf(p *models.UserProgress) Counters {
	if p == nil {
		return Counters{}
	}
	return Counters{
		ScanCount:    p.ScanCount,
		EcoScanCount: p.EcoScanCount,
		StreakDays:   p.StreakDays,
		TotalPoints:  p.TotalPoints,
	}
}

// HistorySource answers questions that need the user's scan history.
type HistorySource interface {
	CountScansInCategory(ctx context.Context, userID, keyword string) (int, error)
	CountScansWithGrades(ctx context.Context, userID string, grades []carbon.Grade) (int, error)
}

// Evaluation is the outcome of checking one challenge.
type Evaluation struct {
	Progress int
	Target   int
	Met      bool
}

// EvaluateChallenge recomputes progress for criteria from scratch.
// Scan totals and the default eco grade set come from counters; a keyword
// or custom grade set is answered by the scan history.
func EvaluateChallenge(ctx context.Context, history HistorySource, userID string, counters Counters, criteria models.Criteria) (Evaluation, error) {
	var progress int

	switch c := criteria.(type) {
	case models.ScanCountCriteria:
		progress = counters.ScanCount
	case models.CategoryCountCriteria:
		n, err := history.CountScansInCategory(ctx, userID, c.Keyword)
		if err != nil {
			return Evaluation{}, fmt.Errorf("count scans in category %q: %w", c.Keyword, err)
		}
		progress = n
	case models.EcoScoreCriteria:
		if isDefaultEcoSet(c.Grades) {
			progress = counters.EcoScanCount
			break
		}
		n, err := history.CountScansWithGrades(ctx, userID, c.Grades)
		if err != nil {
			return Evaluation{}, fmt.Errorf("count scans with grades %v: %w", c.Grades, err)
		}
		progress = n
	case models.StreakCriteria:
		progress = counters.StreakDays
	default:
		return Evaluation{}, fmt.Errorf("unsupported criteria %T", criteria)
	}

	target := criteria.Goal()
	return Evaluation{Progress: progress, Target: target, Met: progress >= target}, nil
}

func isDefaultEcoSet(grades []carbon.Grade) bool {
	if len(grades) != len(models.DefaultEcoGrades) {
		return false
	}
	for _, g := range grades {
		if !slices.Contains(models.DefaultEcoGrades, g) {
			return false
		}
	}
	return true
}
