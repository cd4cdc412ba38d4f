package services

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/progression"
	"greenlens/internal/repositories"
)

// challengeService implements ChallengeService
type challengeService struct {
	tx         repositories.Transactor
	users      repositories.UserRepository
	scans      repositories.ScanRepository
	challenges repositories.ChallengeRepository
	engine     *progressionEngine
	logger     *zap.Logger
}

// NewChallengeService creates a challenge service
func NewChallengeService(repos *repositories.Collection, logger *zap.Logger) ChallengeService {
	return &challengeService{
		tx:         repos.Tx,
		users:      repos.User,
		scans:      repos.Scan,
		challenges: repos.Challenge,
		engine:     newProgressionEngine(repos, logger, time.Now),
		logger:     logger,
	}
}

// ListChallenges returns the active challenge catalog
func (s *challengeService) ListChallenges(ctx context.Context) ([]*models.Challenge, error) {
	challenges, err := s.challenges.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list challenges", zap.Error(err))
		return nil, NewInternalError("failed to list challenges", err)
	}
	if challenges == nil {
		challenges = []*models.Challenge{}
	}
	return challenges, nil
}

// AcceptChallenge enrolls a user. Accepting twice is not an error; the
// second call reports AlreadyAccepted.
func (s *challengeService) AcceptChallenge(ctx context.Context, userID string, challengeID uuid.UUID) (*models.AcceptResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, NewInternalError("failed to load challenge", err)
	}
	if challenge == nil || !challenge.IsActive {
		return nil, EntityNotFoundError("challenge", challengeID.String())
	}

	var result models.AcceptResult
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.EnsureProgress(ctx, userID); err != nil {
			return err
		}
		enrollment, created, err := s.challenges.Enroll(ctx, userID, challengeID)
		if err != nil {
			return err
		}
		enrollment.Challenge = challenge
		result = models.AcceptResult{Enrollment: enrollment, AlreadyAccepted: !created}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to accept challenge",
			zap.String("user_id", userID),
			zap.String("challenge_id", challengeID.String()),
			zap.Error(err),
		)
		return nil, NewInternalError("failed to accept challenge", err)
	}

	if !result.AlreadyAccepted {
		s.logger.Info("Challenge accepted",
			zap.String("user_id", userID),
			zap.String("challenge", challenge.Title),
		)
	}
	return &result, nil
}

// ListUserChallenges reports live progress for every enrollment
func (s *challengeService) ListUserChallenges(ctx context.Context, userID string) ([]models.ChallengeStatus, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	enrollments, err := s.challenges.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to list enrollments", err)
	}
	progress, err := s.users.GetProgress(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load progress", err)
	}
	counters := progression.CountersOf(progress)

	statuses := make([]models.ChallengeStatus, 0, len(enrollments))
	for _, uc := range enrollments {
		status, err := s.status(ctx, userID, counters, uc)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

// RefreshChallenge re-runs evaluation for the user and reports one
// enrollment afterwards
func (s *challengeService) RefreshChallenge(ctx context.Context, userID string, challengeID uuid.UUID) (*models.ChallengeStatus, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	enrollment, err := s.challenges.GetEnrollment(ctx, userID, challengeID)
	if err != nil {
		return nil, NewInternalError("failed to load enrollment", err)
	}
	if enrollment == nil {
		return nil, EntityNotFoundError("user challenge", challengeID.String())
	}

	progress, err := s.users.GetProgress(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load progress", err)
	}
	if _, err := s.engine.run(ctx, userID, progression.CountersOf(progress)); err != nil {
		return nil, NewInternalError("failed to refresh challenge progress", err)
	}

	enrollment, err = s.challenges.GetEnrollment(ctx, userID, challengeID)
	if err != nil || enrollment == nil {
		return nil, NewInternalError("failed to reload enrollment", err)
	}
	progress, err = s.users.GetProgress(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load progress", err)
	}
	return s.status(ctx, userID, progression.CountersOf(progress), enrollment)
}

func (s *challengeService) status(ctx context.Context, userID string, counters progression.Counters, uc *models.UserChallenge) (*models.ChallengeStatus, error) {
	if uc.Challenge == nil {
		challenge, err := s.challenges.GetByID(ctx, uc.ChallengeID)
		if err != nil || challenge == nil {
			return nil, NewInternalError("failed to load challenge", err)
		}
		uc.Challenge = challenge
	}

	eval, err := progression.EvaluateChallenge(ctx, s.scans, userID, counters, uc.Challenge.Criteria)
	if err != nil {
		return nil, NewInternalError("failed to evaluate challenge", err)
	}

	return &models.ChallengeStatus{
		Challenge:   uc.Challenge,
		Progress:    eval.Progress,
		Target:      eval.Target,
		Completed:   uc.Completed,
		Met:         eval.Met,
		CompletedAt: uc.CompletedAt,
	}, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return InvalidInputError("user_id", "is required")
	}
	return nil
}
