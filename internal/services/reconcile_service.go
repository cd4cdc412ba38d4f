package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/progression"
	"greenlens/internal/repositories"
)

// reconcileService implements ReconcileService
type reconcileService struct {
	tx     repositories.Transactor
	users  repositories.UserRepository
	scans  repositories.ScanRepository
	engine *progressionEngine
	logger *zap.Logger
}

// NewReconcileService creates the counter reconciliation service
func NewReconcileService(repos *repositories.Collection, logger *zap.Logger) ReconcileService {
	return &reconcileService{
		tx:     repos.Tx,
		users:  repos.User,
		scans:  repos.Scan,
		engine: newProgressionEngine(repos, logger, time.Now),
		logger: logger,
	}
}

// ReconcileUser recounts scan_count and eco_scan_count from the scan log,
// repairs drift, and re-runs challenge and badge evaluation
func (s *reconcileService) ReconcileUser(ctx context.Context, userID string) (*ReconcileReport, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	report := &ReconcileReport{UserID: userID}
	var base progression.Counters

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		progress, err := s.users.LockProgress(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return EntityNotFoundError("user progress", userID)
		}
		if err != nil {
			return err
		}

		scanCount, err := s.scans.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		ecoCount, err := s.scans.CountScansWithGrades(ctx, userID, models.DefaultEcoGrades)
		if err != nil {
			return err
		}

		report.ScanCountBefore, report.ScanCountAfter = progress.ScanCount, scanCount
		report.EcoScanCountBefore, report.EcoScanCountAfter = progress.EcoScanCount, ecoCount

		if scanCount != progress.ScanCount || ecoCount != progress.EcoScanCount {
			if err := s.users.SetScanCounters(ctx, userID, scanCount, ecoCount); err != nil {
				return err
			}
			report.Repaired = true
			progress.ScanCount, progress.EcoScanCount = scanCount, ecoCount

			s.logger.Warn("Repaired drifted scan counters",
				zap.String("user_id", userID),
				zap.Int("scan_count_before", report.ScanCountBefore),
				zap.Int("scan_count_after", scanCount),
				zap.Int("eco_scan_count_before", report.EcoScanCountBefore),
				zap.Int("eco_scan_count_after", ecoCount),
			)
		}
		base = progression.CountersOf(progress)
		return nil
	})
	if err != nil {
		if IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewInternalError("failed to reconcile counters", err)
	}

	eval, err := s.engine.run(ctx, userID, base)
	report.CompletedChallenges = eval.completed
	report.NewBadges = eval.newBadges
	if err != nil {
		return report, NewInternalError("counters reconciled but evaluation failed", err)
	}
	return report, nil
}

// ReconcileAll reconciles every user with progress, continuing past
// individual failures
func (s *reconcileService) ReconcileAll(ctx context.Context) ([]*ReconcileReport, error) {
	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list users", err)
	}

	reports := make([]*ReconcileReport, 0, len(userIDs))
	var failed int
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.ReconcileUser(ctx, userID)
		if err != nil {
			failed++
			s.logger.Error("Reconciliation failed", zap.String("user_id", userID), zap.Error(err))
		}
		if report != nil {
			reports = append(reports, report)
		}
	}

	s.logger.Info("Reconciliation finished",
		zap.Int("users", len(userIDs)),
		zap.Int("failed", failed),
	)
	return reports, nil
}
