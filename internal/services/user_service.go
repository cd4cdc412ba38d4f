package services

import (
	"context"

	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/repositories"
)

// userService implements UserService
type userService struct {
	users      repositories.UserRepository
	challenges repositories.ChallengeRepository
	badges     repositories.BadgeRepository
	logger     *zap.Logger
}

// NewUserService creates a user stats service
func NewUserService(repos *repositories.Collection, logger *zap.Logger) UserService {
	return &userService{
		users:      repos.User,
		challenges: repos.Challenge,
		badges:     repos.Badge,
		logger:     logger,
	}
}

// GetStats summarizes a user's progression. A user without scans gets
// zeroed stats at level 1.
func (s *userService) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	progress, err := s.users.GetProgress(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load progress", zap.String("user_id", userID), zap.Error(err))
		return nil, NewInternalError("failed to load user stats", err)
	}
	if progress == nil {
		progress = &models.UserProgress{UserID: userID}
	}

	completed, err := s.challenges.CountCompleted(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to count completed challenges", err)
	}
	earned, err := s.badges.CountEarned(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to count earned badges", err)
	}

	return &models.UserStats{
		UserID:              userID,
		Level:               progress.Level(),
		TotalPoints:         progress.TotalPoints,
		StreakDays:          progress.StreakDays,
		LastScanDate:        progress.LastScanDate,
		ScanCount:           progress.ScanCount,
		EcoFriendlyScans:    progress.EcoScanCount,
		CompletedChallenges: completed,
		EarnedBadges:        earned,
	}, nil
}
