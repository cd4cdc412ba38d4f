package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/progression"
	"greenlens/internal/repositories"
)

// progressionEngine re-evaluates challenges and badges for one user. Each
// step runs in its own transaction with the user's progress row locked.
type progressionEngine struct {
	tx         repositories.Transactor
	users      repositories.UserRepository
	scans      repositories.ScanRepository
	challenges repositories.ChallengeRepository
	badges     repositories.BadgeRepository
	logger     *zap.Logger
	now        func() time.Time
}

// evaluation is what one pass of the engine changed
type evaluation struct {
	completed   []models.UserChallenge
	newBadges   []models.Badge
	totalPoints int
	streak      int
}

// run evaluates challenges and then badges. A failing step is logged and
// skipped; err reports the first failure so callers can surface it. base
// holds the counters known before the run.
func (e *progressionEngine) run(ctx context.Context, userID string, base progression.Counters) (evaluation, error) {
	var firstErr error
	result := evaluation{totalPoints: base.TotalPoints, streak: base.StreakDays}

	completed, err := e.evaluateChallenges(ctx, userID)
	if err != nil {
		e.logger.Warn("Challenge evaluation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		firstErr = err
	}
	result.completed = completed
	for _, uc := range completed {
		result.totalPoints += uc.Challenge.PointsReward
	}

	badges, counters, err := e.evaluateBadges(ctx, userID)
	if err != nil {
		e.logger.Warn("Badge evaluation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		if firstErr == nil {
			firstErr = err
		}
		return result, firstErr
	}
	result.newBadges = badges
	result.totalPoints = counters.TotalPoints
	result.streak = counters.StreakDays

	return result, firstErr
}

// evaluateChallenges recomputes every open enrollment from scratch. A
// completion reward is credited only by the call that flips the
// enrollment to completed.
func (e *progressionEngine) evaluateChallenges(ctx context.Context, userID string) ([]models.UserChallenge, error) {
	var completed []models.UserChallenge

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		completed = nil

		progress, err := e.users.LockProgress(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		counters := progression.CountersOf(progress)

		enrollments, err := e.challenges.ListOpenEnrollments(ctx, userID)
		if err != nil {
			return err
		}

		for _, uc := range enrollments {
			if uc.Challenge == nil {
				continue
			}
			eval, err := progression.EvaluateChallenge(ctx, e.scans, userID, counters, uc.Challenge.Criteria)
			if err != nil {
				return fmt.Errorf("challenge %s: %w", uc.ChallengeID, err)
			}

			if !eval.Met {
				if eval.Progress != uc.Progress {
					if err := e.challenges.UpdateProgress(ctx, uc.ID, eval.Progress); err != nil {
						return err
					}
				}
				continue
			}

			at := e.now().UTC()
			flipped, err := e.challenges.MarkCompleted(ctx, uc.ID, eval.Progress, at)
			if err != nil {
				return err
			}
			if !flipped {
				continue
			}

			total, err := e.users.AddPoints(ctx, userID, uc.Challenge.PointsReward)
			if err != nil {
				return err
			}
			counters.TotalPoints = total

			done := *uc
			done.Progress = eval.Progress
			done.Completed = true
			done.CompletedAt = &at
			completed = append(completed, done)

			e.logger.Info("Challenge completed",
				zap.String("user_id", userID),
				zap.String("challenge", uc.Challenge.Title),
				zap.Int("points_reward", uc.Challenge.PointsReward),
				zap.Int("total_points", total),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// evaluateBadges awards every badge whose threshold the user's current
// counters reach. It returns only the badges awarded by this call.
func (e *progressionEngine) evaluateBadges(ctx context.Context, userID string) ([]models.Badge, progression.Counters, error) {
	var (
		awarded  []models.Badge
		counters progression.Counters
	)

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		awarded = nil

		progress, err := e.users.LockProgress(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		counters = progression.CountersOf(progress)

		catalog, err := e.badges.List(ctx)
		if err != nil {
			return err
		}
		earnedRows, err := e.badges.ListEarned(ctx, userID)
		if err != nil {
			return err
		}
		earned := make(map[uuid.UUID]bool, len(earnedRows))
		for _, ub := range earnedRows {
			earned[ub.BadgeID] = true
		}

		for _, badge := range progression.EligibleBadges(catalog, earned, counters) {
			created, err := e.badges.Award(ctx, userID, badge.ID, e.now().UTC())
			if err != nil {
				return err
			}
			if !created {
				continue
			}
			awarded = append(awarded, badge)

			e.logger.Info("Badge earned",
				zap.String("user_id", userID),
				zap.String("badge", badge.Name),
			)
		}
		return nil
	})
	if err != nil {
		return nil, counters, err
	}
	return awarded, counters, nil
}
