package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/carbon"
	"greenlens/internal/config"
	"greenlens/internal/models"
	"greenlens/internal/progression"
	"greenlens/internal/repositories"
	"greenlens/internal/validation"
)

// scanService implements ScanService
type scanService struct {
	tx         repositories.Transactor
	users      repositories.UserRepository
	scans      repositories.ScanRepository
	products   repositories.ProductRepository
	challenges repositories.ChallengeRepository
	catalog    ProductService
	engine     *progressionEngine
	locks      *userLocks
	config     config.ProgressionConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewScanService creates the scan recorder
func NewScanService(
	repos *repositories.Collection,
	catalog ProductService,
	cfg config.ProgressionConfig,
	logger *zap.Logger,
) ScanService {
	s := &scanService{
		tx:         repos.Tx,
		users:      repos.User,
		scans:      repos.Scan,
		products:   repos.Product,
		challenges: repos.Challenge,
		catalog:    catalog,
		locks:      newUserLocks(),
		config:     cfg,
		logger:     logger,
		now:        time.Now,
	}
	s.engine = newProgressionEngine(repos, logger, func() time.Time { return s.now() })
	return s
}

func newProgressionEngine(repos *repositories.Collection, logger *zap.Logger, now func() time.Time) *progressionEngine {
	return &progressionEngine{
		tx:         repos.Tx,
		users:      repos.User,
		scans:      repos.Scan,
		challenges: repos.Challenge,
		badges:     repos.Badge,
		logger:     logger,
		now:        now,
	}
}

// ===============================
// RECORDING
// ===============================

// RecordScan stores one scan and credits its base points atomically, then
// re-evaluates challenges and badges. Only the first part can fail the
// call; a failure there leaves no trace and is reported as
// SCAN_NOT_RECORDED.
func (s *scanService) RecordScan(ctx context.Context, req *RecordScanRequest) (*models.ScanResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid scan request", err)
	}

	event, err := s.resolveEvent(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(event.UserID)
	defer unlock()

	scan, progress, err := s.record(ctx, event)
	if err != nil {
		s.logger.Error("Failed to record scan",
			zap.String("user_id", event.UserID),
			zap.String("barcode", event.Barcode),
			zap.Error(err),
		)
		return nil, NewScanNotRecordedError(err)
	}
	if event.ProductID != nil {
		// scan_count changed
		s.catalog.ForgetProduct(ctx, event.Barcode)
	}

	s.logger.Info("Scan recorded",
		zap.String("user_id", event.UserID),
		zap.String("barcode", event.Barcode),
		zap.Float64("carbon_footprint", event.CarbonFootprint),
		zap.Int("streak", progress.StreakDays),
	)

	eval, err := s.engine.run(ctx, event.UserID, progression.CountersOf(progress))
	if err != nil {
		s.logger.Warn("Scan recorded without full progression update",
			zap.String("user_id", event.UserID),
			zap.String("scan_id", scan.ID.String()),
			zap.Error(err),
		)
	}

	newBadges := eval.newBadges
	if newBadges == nil {
		newBadges = []models.Badge{}
	}

	return &models.ScanResult{
		Scan:                scan,
		EcoScore:            event.EcoScore,
		PointsEarned:        scan.PointsEarned,
		TotalPoints:         eval.totalPoints,
		Streak:              eval.streak,
		NewBadges:           newBadges,
		CompletedChallenges: eval.completed,
		Comparisons:         carbon.Comparisons(event.CarbonFootprint),
	}, nil
}

// resolveEvent determines the product a scan refers to
func (s *scanService) resolveEvent(ctx context.Context, req *RecordScanRequest) (*models.ScanEvent, error) {
	event := &models.ScanEvent{
		UserID:  req.UserID,
		Barcode: req.Barcode,
	}

	switch {
	case req.ProductID != nil:
		product, err := s.products.GetByID(ctx, *req.ProductID)
		if err != nil {
			return nil, NewScanNotRecordedError(err)
		}
		if product == nil {
			return nil, EntityNotFoundError("product", req.ProductID.String())
		}
		applyProduct(event, product)

	case req.CarbonFootprint != nil:
		// caller supplied figures for a product the catalog does not hold
		event.ProductName = fmt.Sprintf("Product %s", req.Barcode)
		event.CarbonFootprint = carbon.Round1(*req.CarbonFootprint)
		event.EcoScore = carbon.GradeFor(event.CarbonFootprint, carbon.DefaultWeightKg)

	default:
		product, err := s.catalog.ResolveForScan(ctx, req.Barcode)
		if err != nil {
			return nil, NewScanNotRecordedError(err)
		}
		applyProduct(event, product)
	}

	if req.ProductName != nil && *req.ProductName != "" {
		event.ProductName = *req.ProductName
	}
	if req.CarbonFootprint != nil && req.ProductID != nil {
		event.CarbonFootprint = carbon.Round1(*req.CarbonFootprint)
	}
	return event, nil
}

func applyProduct(event *models.ScanEvent, product *models.Product) {
	event.ProductName = product.Name
	event.CarbonFootprint = product.CarbonFootprint
	event.EcoScore = product.EcoScore
	if product.ID != uuid.Nil {
		id := product.ID
		event.ProductID = &id
	}
}

// record is the atomic part of a scan: streak transition, scan row,
// counter update and product popularity
func (s *scanService) record(ctx context.Context, event *models.ScanEvent) (*models.Scan, *models.UserProgress, error) {
	var (
		scan    *models.Scan
		updated *models.UserProgress
	)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		created, err := s.users.EnsureProgress(ctx, event.UserID)
		if err != nil {
			return err
		}
		if created && s.config.AutoEnrollChallenges {
			if err := s.enrollAll(ctx, event.UserID); err != nil {
				return err
			}
		}

		progress, err := s.users.LockProgress(ctx, event.UserID)
		if err != nil {
			return err
		}

		now := s.now()
		today := progression.CalendarDate(now.In(s.config.Location()))
		streak, changed := progression.NextStreak(progress.LastScanDate, progress.StreakDays, today)

		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate scan id: %w", err)
		}
		scan = &models.Scan{
			ID:              id,
			UserID:          event.UserID,
			ProductID:       event.ProductID,
			Barcode:         event.Barcode,
			ProductName:     event.ProductName,
			CarbonFootprint: event.CarbonFootprint,
			PointsEarned:    s.config.PointsPerScan,
			ScannedAt:       now.UTC(),
		}
		if err := s.scans.Create(ctx, scan); err != nil {
			return err
		}

		update := models.ProgressUpdate{
			PointsDelta:  s.config.PointsPerScan,
			LastScanDate: today,
			LastActiveAt: now.UTC(),
			EcoScan:      event.ProductID != nil && event.EcoScore.EcoFriendly(),
		}
		if changed {
			update.StreakDays = &streak
		}
		updated, err = s.users.ApplyScan(ctx, event.UserID, update)
		if err != nil {
			return err
		}

		if event.ProductID != nil {
			if err := s.products.IncrementScanCount(ctx, *event.ProductID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return scan, updated, nil
}

func (s *scanService) enrollAll(ctx context.Context, userID string) error {
	active, err := s.challenges.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, c := range active {
		if _, _, err := s.challenges.Enroll(ctx, userID, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// ===============================
// HISTORY
// ===============================

// ListScans returns a page of the user's scans, newest first
func (s *scanService) ListScans(ctx context.Context, req *ListScansRequest) (*models.ScanPage, error) {
	if req.Limit == 0 {
		req.Limit = defaultScanPageSize
	}
	if req.Limit > maxScanPageSize {
		req.Limit = maxScanPageSize
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid scan history request", err)
	}

	scans, total, err := s.scans.ListByUser(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		s.logger.Error("Failed to list scans", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, NewInternalError("failed to list scans", err)
	}
	if scans == nil {
		scans = []models.Scan{}
	}

	return &models.ScanPage{
		Scans:  scans,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}
