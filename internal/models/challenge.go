package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"greenlens/internal/carbon"
)

// ===============================
// CHALLENGES
// ===============================

// ChallengeCategory selects the progress rule of a challenge.
type ChallengeCategory string

const (
	ChallengeScanCount     ChallengeCategory = "scan_count"
	ChallengeCategoryCount ChallengeCategory = "category_count"
	ChallengeEcoScore      ChallengeCategory = "eco_score"
	ChallengeStreak        ChallengeCategory = "streak"
)

// DefaultEcoGrades are the grades counted by an eco_score challenge that
// does not list its own.
var DefaultEcoGrades = []carbon.Grade{carbon.GradeA, carbon.GradeB}

// Criteria is the closed set of challenge goals. Each implementation
// corresponds to exactly one ChallengeCategory.
type Criteria interface {
	Kind() ChallengeCategory
	Goal() int
	isCriteria()
}

// ScanCountCriteria counts every scan of the user.
type ScanCountCriteria struct {
	Target int `json:"target" yaml:"target"`
}

// CategoryCountCriteria counts scans whose product category contains Keyword.
type CategoryCountCriteria struct {
	Target  int    `json:"target" yaml:"target"`
	Keyword string `json:"category" yaml:"category"`
}

// EcoScoreCriteria counts scans of products graded in Grades.
type EcoScoreCriteria struct {
	Target int            `json:"target" yaml:"target"`
	Grades []carbon.Grade `json:"ecoScores" yaml:"ecoScores"`
}

// StreakCriteria compares against the current streak.
type StreakCriteria struct {
	Target int `json:"target" yaml:"target"`
}

func (ScanCountCriteria) Kind() ChallengeCategory     { return ChallengeScanCount }
func (CategoryCountCriteria) Kind() ChallengeCategory { return ChallengeCategoryCount }
func (EcoScoreCriteria) Kind() ChallengeCategory      { return ChallengeEcoScore }
func (StreakCriteria) Kind() ChallengeCategory        { return ChallengeStreak }

func (c ScanCountCriteria) Goal() int     { return c.Target }
func (c CategoryCountCriteria) Goal() int { return c.Target }
func (c EcoScoreCriteria) Goal() int      { return c.Target }
func (c StreakCriteria) Goal() int        { return c.Target }

func (ScanCountCriteria) isCriteria()     {}
func (CategoryCountCriteria) isCriteria() {}
func (EcoScoreCriteria) isCriteria()      {}
func (StreakCriteria) isCriteria()        {}

// rawCriteria is the stored JSON shape shared by every category.
type rawCriteria struct {
	Target    *int     `json:"target"`
	Category  string   `json:"category,omitempty"`
	EcoScores []string `json:"ecoScores,omitempty"`
}

// ParseCriteria decodes stored criteria for the given category. A missing
// target or an unknown category is an error rather than a zero goal.
func ParseCriteria(category ChallengeCategory, data []byte) (Criteria, error) {
	var raw rawCriteria
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s criteria: %w", category, err)
	}
	return BuildCriteria(category, raw.Target, raw.Category, raw.EcoScores)
}

// BuildCriteria assembles criteria from loosely typed parts, as found in
// stored rows and seed files.
func BuildCriteria(category ChallengeCategory, target *int, keyword string, grades []string) (Criteria, error) {
	if target == nil {
		return nil, fmt.Errorf("%s criteria: target is required", category)
	}
	if *target <= 0 {
		return nil, fmt.Errorf("%s criteria: target must be positive, got %d", category, *target)
	}

	switch category {
	case ChallengeScanCount:
		return ScanCountCriteria{Target: *target}, nil
	case ChallengeCategoryCount:
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return nil, fmt.Errorf("%s criteria: category keyword is required", category)
		}
		return CategoryCountCriteria{Target: *target, Keyword: keyword}, nil
	case ChallengeEcoScore:
		accepted := make([]carbon.Grade, 0, len(grades))
		for _, g := range grades {
			grade, ok := carbon.ParseGrade(g)
			if !ok {
				return nil, fmt.Errorf("%s criteria: invalid grade %q", category, g)
			}
			accepted = append(accepted, grade)
		}
		if len(accepted) == 0 {
			accepted = append(accepted, DefaultEcoGrades...)
		}
		return EcoScoreCriteria{Target: *target, Grades: accepted}, nil
	case ChallengeStreak:
		return StreakCriteria{Target: *target}, nil
	default:
		return nil, fmt.Errorf("unknown challenge category %q", category)
	}
}

// EncodeCriteria produces the stored JSON form of criteria.
func EncodeCriteria(c Criteria) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("criteria is nil")
	}
	return json.Marshal(c)
}

// Challenge is a catalog goal with a one-time point reward.
type Challenge struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	Title        string            `json:"title" db:"title"`
	Description  string            `json:"description" db:"description"`
	Category     ChallengeCategory `json:"category" db:"category"`
	Criteria     Criteria          `json:"criteria" db:"criteria"`
	PointsReward int               `json:"points_reward" db:"points_reward"`
	IsActive     bool              `json:"is_active" db:"is_active"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// UserChallenge is a user's enrollment in a challenge. Progress is
// recomputed on every evaluation, never accumulated.
type UserChallenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Progress    int        `json:"progress" db:"progress"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	Challenge   *Challenge `json:"challenge,omitempty" db:"-"`
}

// ChallengeStatus is the per-challenge view returned to users.
type ChallengeStatus struct {
	Challenge   *Challenge `json:"challenge"`
	Progress    int        `json:"progress"`
	Target      int        `json:"target"`
	Completed   bool       `json:"completed"`
	Met         bool       `json:"met"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AcceptResult reports a challenge enrollment.
type AcceptResult struct {
	Enrollment      *UserChallenge `json:"enrollment"`
	AlreadyAccepted bool           `json:"already_accepted"`
}
