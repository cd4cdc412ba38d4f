package progression

import (
	"sort"

	"github.com/gofrs/uuid"

	"greenlens/internal/models"
)

// BadgeCounter returns the counter a badge criteria type compares against.
// ok is false for an unknown type, which never qualifies.
func BadgeCounter(c Counters, criteria models.BadgeCriteria) (value int, ok bool) {
	switch criteria {
	case models.BadgeScansTotal:
		return c.ScanCount, true
	case models.BadgeStreakDays:
		return c.StreakDays, true
	case models.BadgeEcoProducts:
		return c.EcoScanCount, true
	case models.BadgePointsTotal:
		return c.TotalPoints, true
	}
	return 0, false
}

// EligibleBadges returns, in display order, the badges not in earned whose
// threshold the counters reach.
func EligibleBadges(catalog []models.Badge, earned map[uuid.UUID]bool, c Counters) []models.Badge {
	candidates := make([]models.Badge, 0, len(catalog))
	for _, b := range catalog {
		if earned[b.ID] {
			continue
		}
		value, ok := BadgeCounter(c, b.CriteriaType)
		if ok && value >= b.CriteriaValue {
			candidates = append(candidates, b)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DisplayOrder < candidates[j].DisplayOrder
	})
	return candidates
}
