package services

import (
	"context"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/repositories"
)

type badgeService struct {
	badges repositories.BadgeRepository
	logger *zap.Logger
}

// NewBadgeService creates a badge service
func NewBadgeService(badges repositories.BadgeRepository, logger *zap.Logger) BadgeService {
	return &badgeService{badges: badges, logger: logger}
}

func (s *badgeService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.badges.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list badges", zap.Error(err))
		return nil, NewInternalError("failed to list badges", err)
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	return badges, nil
}

// ListUserBadges returns the whole catalog in display order with the
// user's earned flags
func (s *badgeService) ListUserBadges(ctx context.Context, userID string) ([]models.BadgeStatus, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	catalog, err := s.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.badges.ListEarned(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list earned badges", zap.String("user_id", userID), zap.Error(err))
		return nil, NewInternalError("failed to list earned badges", err)
	}

	earnedAt := make(map[uuid.UUID]models.UserBadge, len(earned))
	for _, ub := range earned {
		earnedAt[ub.BadgeID] = ub
	}

	statuses := make([]models.BadgeStatus, 0, len(catalog))
	for i := range catalog {
		status := models.BadgeStatus{Badge: &catalog[i]}
		if ub, ok := earnedAt[catalog[i].ID]; ok {
			at := ub.EarnedAt
			status.Earned = true
			status.EarnedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
