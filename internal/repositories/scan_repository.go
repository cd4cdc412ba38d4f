package repositories

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"greenlens/internal/carbon"
	"greenlens/internal/database"
	"greenlens/internal/models"
)

type scanRepository struct {
	*BaseRepository
}

// NewScanRepository creates a Postgres-backed scan repository
func NewScanRepository(db *database.Manager, logger *zap.Logger) ScanRepository {
	return &scanRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *scanRepository) Create(ctx context.Context, scan *models.Scan) error {
	if scan.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate scan id: %w", err)
		}
		scan.ID = id
	}

	query := `
		INSERT INTO scans (
			id, user_id, product_id, barcode, product_name, carbon_footprint, points_earned, scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.ExecContext(ctx, query,
		scan.ID, scan.UserID, scan.ProductID, scan.Barcode, scan.ProductName,
		scan.CarbonFootprint, scan.PointsEarned, scan.ScannedAt,
	)
	if err != nil {
		r.GetLogger().Error("Failed to create scan",
			zap.Error(err),
			zap.String("user_id", scan.UserID),
			zap.String("barcode", scan.Barcode),
		)
		return fmt.Errorf("failed to create scan: %w", err)
	}
	return nil
}

// ListByUser returns one page of history, newest first, with the total count
func (r *scanRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Scan, int, error) {
	total, err := r.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, product_id, barcode, product_name, carbon_footprint, points_earned, scanned_at
		FROM scans
		WHERE user_id = $1
		ORDER BY scanned_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	scans := make([]models.Scan, 0, limit)
	for rows.Next() {
		var s models.Scan
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.ProductID, &s.Barcode, &s.ProductName,
			&s.CarbonFootprint, &s.PointsEarned, &s.ScannedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate scans: %w", err)
	}

	return scans, total, nil
}

func (r *scanRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := r.countRow(ctx, `SELECT COUNT(*) FROM scans WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return n, nil
}

// CountScansInCategory matches the keyword as a case-insensitive substring
// of the scanned product's category.
func (r *scanRepository) CountScansInCategory(ctx context.Context, userID, keyword string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scans s
		JOIN products p ON p.id = s.product_id
		WHERE s.user_id = $1 AND p.category ILIKE $2 ESCAPE '\'`

	n, err := r.countRow(ctx, query, userID, containsPattern(keyword))
	if err != nil {
		return 0, fmt.Errorf("failed to count scans in category: %w", err)
	}
	return n, nil
}

// CountScansWithGrades counts scans of products currently graded in grades.
func (r *scanRepository) CountScansWithGrades(ctx context.Context, userID string, grades []carbon.Grade) (int, error) {
	letters := make([]string, 0, len(grades))
	for _, g := range grades {
		letters = append(letters, string(g))
	}

	query := `
		SELECT COUNT(*)
		FROM scans s
		JOIN products p ON p.id = s.product_id
		WHERE s.user_id = $1 AND p.eco_score = ANY($2)`

	n, err := r.countRow(ctx, query, userID, pq.Array(letters))
	if err != nil {
		return 0, fmt.Errorf("failed to count scans by grade: %w", err)
	}
	return n, nil
}
