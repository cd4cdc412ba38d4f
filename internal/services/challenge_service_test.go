package services

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greenlens/internal/models"
)

func TestAcceptChallenge_Idempotent(t *testing.T) {
	store := newFakeStore()
	challenge := store.addChallenge("Eco Week", models.EcoScoreCriteria{Target: 3, Grades: models.DefaultEcoGrades}, 30)
	svc := NewChallengeService(store.collection(), zap.NewNop())
	ctx := context.Background()

	first, err := svc.AcceptChallenge(ctx, testUser, challenge.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyAccepted)
	assert.Equal(t, challenge.Title, first.Enrollment.Challenge.Title)

	second, err := svc.AcceptChallenge(ctx, testUser, challenge.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyAccepted)
	assert.Equal(t, first.Enrollment.ID, second.Enrollment.ID)
}

func TestAcceptChallenge_UnknownOrInactive(t *testing.T) {
	store := newFakeStore()
	inactive := store.addChallenge("Retired", models.StreakCriteria{Target: 3}, 10)
	inactive.IsActive = false
	svc := NewChallengeService(store.collection(), zap.NewNop())

	_, err := svc.AcceptChallenge(context.Background(), testUser, uuid.Must(uuid.NewV4()))
	assert.True(t, IsNotFoundError(err))

	_, err = svc.AcceptChallenge(context.Background(), testUser, inactive.ID)
	assert.True(t, IsNotFoundError(err))

	_, err = svc.AcceptChallenge(context.Background(), " ", inactive.ID)
	assert.True(t, IsValidationError(err))
}

func TestListUserChallenges_ReportsLiveProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	drinks := h.store.addChallenge("Drinks", models.CategoryCountCriteria{Target: 2, Keyword: "BEVER"}, 20)
	streak := h.store.addChallenge("Streak", models.StreakCriteria{Target: 3}, 40)

	svc := NewChallengeService(h.store.collection(), zap.NewNop())
	_, err := svc.AcceptChallenge(ctx, testUser, drinks.ID)
	require.NoError(t, err)
	_, err = svc.AcceptChallenge(ctx, testUser, streak.ID)
	require.NoError(t, err)

	h.scan(t, colaBarcode)

	statuses, err := svc.ListUserChallenges(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byTitle := map[string]models.ChallengeStatus{}
	for _, s := range statuses {
		byTitle[s.Challenge.Title] = s
	}
	assert.Equal(t, 1, byTitle["Drinks"].Progress)
	assert.Equal(t, 2, byTitle["Drinks"].Target)
	assert.False(t, byTitle["Drinks"].Met)
	assert.Equal(t, 1, byTitle["Streak"].Progress)
	assert.Equal(t, 3, byTitle["Streak"].Target)
}

func TestRefreshChallenge_DoesNotRecredit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	challenge := h.store.addChallenge("One scan", models.ScanCountCriteria{Target: 1}, 50)
	svc := NewChallengeService(h.store.collection(), zap.NewNop())

	_, err := svc.AcceptChallenge(ctx, testUser, challenge.ID)
	require.NoError(t, err)
	h.scan(t, colaBarcode)
	assert.Equal(t, 60, h.store.progressOf(testUser).TotalPoints)

	for i := 0; i < 2; i++ {
		status, err := svc.RefreshChallenge(ctx, testUser, challenge.ID)
		require.NoError(t, err)
		assert.True(t, status.Completed)
		assert.True(t, status.Met)
		assert.Equal(t, 1, status.Progress)
		assert.NotNil(t, status.CompletedAt)
	}
	assert.Equal(t, 60, h.store.progressOf(testUser).TotalPoints)
}

func TestRefreshChallenge_CompletesMissedChallenge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.scan(t, colaBarcode)

	challenge := h.store.addChallenge("One scan", models.ScanCountCriteria{Target: 1}, 50)
	svc := NewChallengeService(h.store.collection(), zap.NewNop())
	_, err := svc.AcceptChallenge(ctx, testUser, challenge.ID)
	require.NoError(t, err)

	status, err := svc.RefreshChallenge(ctx, testUser, challenge.ID)
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, 60, h.store.progressOf(testUser).TotalPoints)
}

func TestRefreshChallenge_NotEnrolled(t *testing.T) {
	store := newFakeStore()
	svc := NewChallengeService(store.collection(), zap.NewNop())

	_, err := svc.RefreshChallenge(context.Background(), testUser, uuid.Must(uuid.NewV4()))
	assert.True(t, IsNotFoundError(err))
}
