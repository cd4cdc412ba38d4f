package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greenlens/internal/carbon"
	"greenlens/internal/models"
	"greenlens/internal/repositories"
)

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memChallenges implements only the upsert path; other methods are unused
type memChallenges struct {
	repositories.ChallengeRepository
	byTitle map[string]*models.Challenge
	err     error
}

func (m *memChallenges) Upsert(_ context.Context, c *models.Challenge) error {
	if m.err != nil {
		return m.err
	}
	if existing, ok := m.byTitle[c.Title]; ok {
		c.ID = existing.ID
	} else {
		c.ID = uuid.Must(uuid.NewV4())
	}
	cp := *c
	m.byTitle[c.Title] = &cp
	return nil
}

type memBadges struct {
	repositories.BadgeRepository
	byName map[string]*models.Badge
}

func (m *memBadges) Upsert(_ context.Context, b *models.Badge) error {
	if existing, ok := m.byName[b.Name]; ok {
		b.ID = existing.ID
	} else {
		b.ID = uuid.Must(uuid.NewV4())
	}
	cp := *b
	m.byName[b.Name] = &cp
	return nil
}

func newMemSeeder() (*Seeder, *memChallenges, *memBadges) {
	challenges := &memChallenges{byTitle: map[string]*models.Challenge{}}
	badges := &memBadges{byName: map[string]*models.Badge{}}
	repos := &repositories.Collection{Tx: passthroughTx{}, Challenge: challenges, Badge: badges}
	return NewSeeder(repos, zap.NewNop()), challenges, badges
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)
	assert.Len(t, catalog.Challenges, 5)
	assert.Len(t, catalog.Badges, 14)

	eco, err := catalog.Challenges[2].criteria()
	require.NoError(t, err)
	assert.Equal(t, models.EcoScoreCriteria{Target: 3, Grades: []carbon.Grade{carbon.GradeA, carbon.GradeB}}, eco)

	plastic, err := catalog.Challenges[1].criteria()
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCountCriteria{Target: 3, Keyword: "plastic"}, plastic)
}

func TestApply_Idempotent(t *testing.T) {
	seeder, challenges, badges := newMemSeeder()
	catalog, err := Default()
	require.NoError(t, err)

	first, err := seeder.Apply(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, &Result{Challenges: 5, Badges: 14}, first)
	firstID := challenges.byTitle["Week Warrior"].ID

	_, err = seeder.Apply(context.Background(), catalog)
	require.NoError(t, err)
	assert.Len(t, challenges.byTitle, 5)
	assert.Len(t, badges.byName, 14)
	assert.Equal(t, firstID, challenges.byTitle["Week Warrior"].ID)

	assert.Equal(t, 0, badges.byName["First Scan"].DisplayOrder)
	assert.Equal(t, 13, badges.byName["Points Champion"].DisplayOrder)
	assert.Equal(t, models.BadgeStreakDays, badges.byName["Week Warrior"].CriteriaType)
	assert.True(t, challenges.byTitle["Scan Master"].IsActive)
}

func TestApply_PropagatesErrors(t *testing.T) {
	seeder, challenges, _ := newMemSeeder()
	challenges.err = errors.New("connection refused")
	catalog, err := Default()
	require.NoError(t, err)

	_, err = seeder.Apply(context.Background(), catalog)
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "challenges: ["},
		{"unknown category", "challenges:\n  - {title: X, category: nope, criteria: {target: 1}}"},
		{"missing target", "challenges:\n  - {title: X, category: streak}"},
		{"category without keyword", "challenges:\n  - {title: X, category: category_count, criteria: {target: 2}}"},
		{"bad grade", "challenges:\n  - {title: X, category: eco_score, criteria: {target: 2, ecoScores: [Z]}}"},
		{"duplicate title", "challenges:\n  - {title: X, category: streak, criteria: {target: 1}}\n  - {title: X, category: streak, criteria: {target: 2}}"},
		{"bad badge type", "badges:\n  - {name: B, criteria_type: likes, criteria_value: 1}"},
		{"zero threshold", "badges:\n  - {name: B, criteria_type: scans_total, criteria_value: 0}"},
		{"duplicate badge", "badges:\n  - {name: B, criteria_type: scans_total, criteria_value: 1}\n  - {name: B, criteria_type: scans_total, criteria_value: 2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
