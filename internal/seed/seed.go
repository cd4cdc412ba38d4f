// Package seed loads the challenge and badge catalog and applies it to the
// store idempotently.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"greenlens/internal/models"
	"greenlens/internal/repositories"
	"greenlens/internal/validation"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the parsed seed file
type Catalog struct {
	Challenges []ChallengeEntry `yaml:"challenges" validate:"dive"`
	Badges     []BadgeEntry     `yaml:"badges" validate:"dive"`
}

// ChallengeEntry is one challenge of the seed file
type ChallengeEntry struct {
	Title        string `yaml:"title" validate:"required,max=200"`
	Description  string `yaml:"description"`
	Category     string `yaml:"category" validate:"required,oneof=scan_count category_count eco_score streak"`
	PointsReward int    `yaml:"points_reward" validate:"gte=0"`
	Inactive     bool   `yaml:"inactive"`
	Criteria     struct {
		Target    *int     `yaml:"target"`
		Category  string   `yaml:"category"`
		EcoScores []string `yaml:"ecoScores" validate:"dive,ecograde"`
	} `yaml:"criteria"`
}

// BadgeEntry is one badge of the seed file. Entries are displayed in file
// order.
type BadgeEntry struct {
	Name          string `yaml:"name" validate:"required,max=100"`
	Description   string `yaml:"description"`
	Icon          string `yaml:"icon"`
	CriteriaType  string `yaml:"criteria_type" validate:"required,oneof=scans_total streak_days eco_products points_total"`
	CriteriaValue int    `yaml:"criteria_value" validate:"gt=0"`
}

// Result counts what Apply wrote
type Result struct {
	Challenges int `json:"challenges"`
	Badges     int `json:"badges"`
}

// Default parses the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a seed catalog. Names must be unique and
// every challenge must have well-formed criteria for its category.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	if err := validation.ValidateStruct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid seed catalog: %w", err)
	}

	titles := make(map[string]bool, len(catalog.Challenges))
	for _, entry := range catalog.Challenges {
		if titles[entry.Title] {
			return nil, fmt.Errorf("duplicate challenge title %q", entry.Title)
		}
		titles[entry.Title] = true
		if _, err := entry.criteria(); err != nil {
			return nil, fmt.Errorf("challenge %q: %w", entry.Title, err)
		}
	}

	names := make(map[string]bool, len(catalog.Badges))
	for _, entry := range catalog.Badges {
		if names[entry.Name] {
			return nil, fmt.Errorf("duplicate badge name %q", entry.Name)
		}
		names[entry.Name] = true
	}
	return &catalog, nil
}

func (e ChallengeEntry) criteria() (models.Criteria, error) {
	return models.BuildCriteria(models.ChallengeCategory(e.Category), e.Criteria.Target, e.Criteria.Category, e.Criteria.EcoScores)
}

// Seeder writes a catalog through the repositories
type Seeder struct {
	tx         repositories.Transactor
	challenges repositories.ChallengeRepository
	badges     repositories.BadgeRepository
	logger     *zap.Logger
}

// NewSeeder creates a seeder over the repository collection
func NewSeeder(repos *repositories.Collection, logger *zap.Logger) *Seeder {
	return &Seeder{
		tx:         repos.Tx,
		challenges: repos.Challenge,
		badges:     repos.Badge,
		logger:     logger,
	}
}

// Apply upserts every challenge by title and every badge by name in one
// transaction. Running it twice leaves the store unchanged.
func (s *Seeder) Apply(ctx context.Context, catalog *Catalog) (*Result, error) {
	result := &Result{}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, entry := range catalog.Challenges {
			criteria, err := entry.criteria()
			if err != nil {
				return fmt.Errorf("challenge %q: %w", entry.Title, err)
			}
			challenge := &models.Challenge{
				Title:        entry.Title,
				Description:  entry.Description,
				Category:     criteria.Kind(),
				Criteria:     criteria,
				PointsReward: entry.PointsReward,
				IsActive:     !entry.Inactive,
			}
			if err := s.challenges.Upsert(ctx, challenge); err != nil {
				return err
			}
			result.Challenges++
		}

		for i, entry := range catalog.Badges {
			badge := &models.Badge{
				Name:          entry.Name,
				Description:   entry.Description,
				Icon:          entry.Icon,
				CriteriaType:  models.BadgeCriteria(entry.CriteriaType),
				CriteriaValue: entry.CriteriaValue,
				DisplayOrder:  i,
			}
			if err := s.badges.Upsert(ctx, badge); err != nil {
				return err
			}
			result.Badges++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Seeding failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Seed catalog applied",
		zap.Int("challenges", result.Challenges),
		zap.Int("badges", result.Badges),
	)
	return result, nil
}
