package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenlens/internal/carbon"
	"greenlens/internal/models"
)

type stubHistory struct {
	categoryCounts map[string]int
	gradeCount     int
	err            error
	calls          int
}

func (s *stubHistory) CountScansInCategory(_ context.Context, _ string, keyword string) (int, error) {
	s.calls++
	return s.categoryCounts[keyword], s.err
}

func (s *stubHistory) CountScansWithGrades(_ context.Context, _ string, _ []carbon.Grade) (int, error) {
	s.calls++
	return s.gradeCount, s.err
}

func TestEvaluateChallenge(t *testing.T) {
	ctx := context.Background()
	counters := Counters{ScanCount: 6, EcoScanCount: 2, StreakDays: 7, TotalPoints: 60}
	history := &stubHistory{categoryCounts: map[string]int{"plastic": 3}, gradeCount: 4}

	tests := []struct {
		name     string
		criteria models.Criteria
		want     Evaluation
	}{
		{"scan count met", models.ScanCountCriteria{Target: 5}, Evaluation{6, 5, true}},
		{"scan count not met", models.ScanCountCriteria{Target: 25}, Evaluation{6, 25, false}},
		{"category count", models.CategoryCountCriteria{Target: 3, Keyword: "plastic"}, Evaluation{3, 3, true}},
		{"default eco grades use counter", models.EcoScoreCriteria{Target: 3, Grades: []carbon.Grade{carbon.GradeB, carbon.GradeA}}, Evaluation{2, 3, false}},
		{"custom eco grades use history", models.EcoScoreCriteria{Target: 3, Grades: []carbon.Grade{carbon.GradeA}}, Evaluation{4, 3, true}},
		{"streak", models.StreakCriteria{Target: 7}, Evaluation{7, 7, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateChallenge(ctx, history, "user-1", counters, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateChallenge_Idempotent(t *testing.T) {
	history := &stubHistory{categoryCounts: map[string]int{"beef": 2}}
	criteria := models.CategoryCountCriteria{Target: 5, Keyword: "beef"}

	first, err := EvaluateChallenge(context.Background(), history, "u", Counters{}, criteria)
	require.NoError(t, err)
	second, err := EvaluateChallenge(context.Background(), history, "u", Counters{}, criteria)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateChallenge_HistoryError(t *testing.T) {
	history := &stubHistory{err: errors.New("connection reset")}

	_, err := EvaluateChallenge(context.Background(), history, "u", Counters{}, models.CategoryCountCriteria{Target: 1, Keyword: "milk"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestEvaluateChallenge_CountersOnlyDoNotTouchHistory(t *testing.T) {
	history := &stubHistory{}
	_, err := EvaluateChallenge(context.Background(), history, "u", Counters{ScanCount: 1}, models.ScanCountCriteria{Target: 1})
	require.NoError(t, err)
	assert.Zero(t, history.calls)
}

func TestEvaluateChallenge_NilCriteria(t *testing.T) {
	_, err := EvaluateChallenge(context.Background(), &stubHistory{}, "u", Counters{}, nil)
	assert.Error(t, err)
}
