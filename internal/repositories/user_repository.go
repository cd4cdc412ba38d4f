package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"greenlens/internal/database"
	"greenlens/internal/models"
)

type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a Postgres-backed progress repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const progressColumns = `
	user_id, total_points, streak_days, last_scan_date, last_active_at,
	scan_count, eco_scan_count, created_at, updated_at`

func scanProgress(row rowScanner) (*models.UserProgress, error) {
	var p models.UserProgress
	err := row.Scan(
		&p.UserID, &p.TotalPoints, &p.StreakDays, &p.LastScanDate, &p.LastActiveAt,
		&p.ScanCount, &p.EcoScanCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userRepository) EnsureProgress(ctx context.Context, userID string) (bool, error) {
	query := `INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	result, err := r.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to ensure user progress: %w", err)
	}
	return rowsAffected(result)
}

// GetProgress returns nil for a user that has never scanned or enrolled
func (r *userRepository) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1`

	progress, err := scanProgress(r.QueryRowContext(ctx, query, userID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return progress, nil
}

func (r *userRepository) LockProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	if _, ok := database.TxFromContext(ctx); !ok {
		return nil, fmt.Errorf("locking user progress requires a transaction")
	}

	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 FOR UPDATE`

	progress, err := scanProgress(r.QueryRowContext(ctx, query, userID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, fmt.Errorf("user progress %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock user progress: %w", err)
	}
	return progress, nil
}

// ApplyScan credits one scan's points and counters. The streak column is
// only written when update.StreakDays is set.
func (r *userRepository) ApplyScan(ctx context.Context, userID string, update models.ProgressUpdate) (*models.UserProgress, error) {
	ecoDelta := 0
	if update.EcoScan {
		ecoDelta = 1
	}

	query := `
		UPDATE user_progress SET
			total_points   = total_points + $2,
			last_active_at = $3,
			last_scan_date = $4::date,
			streak_days    = COALESCE($5, streak_days),
			scan_count     = scan_count + 1,
			eco_scan_count = eco_scan_count + $6,
			updated_at     = NOW()
		WHERE user_id = $1
		RETURNING ` + progressColumns

	progress, err := scanProgress(r.QueryRowContext(ctx, query,
		userID, update.PointsDelta, update.LastActiveAt,
		update.LastScanDate.Format("2006-01-02"), update.StreakDays, ecoDelta,
	))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, fmt.Errorf("user progress %s: %w", userID, ErrNotFound)
		}
		r.GetLogger().Error("Failed to apply scan to user progress",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("failed to apply scan: %w", err)
	}
	return progress, nil
}

// AddPoints credits points and returns the new total
func (r *userRepository) AddPoints(ctx context.Context, userID string, points int) (int, error) {
	if points < 0 {
		return 0, fmt.Errorf("points cannot be negative: %d", points)
	}

	query := `
		UPDATE user_progress SET total_points = total_points + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING total_points`

	var total int
	if err := r.QueryRowContext(ctx, query, userID, points).Scan(&total); err != nil {
		if r.IsNotFound(err) {
			return 0, fmt.Errorf("user progress %s: %w", userID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}

func (r *userRepository) SetScanCounters(ctx context.Context, userID string, scanCount, ecoScanCount int) error {
	query := `
		UPDATE user_progress SET scan_count = $2, eco_scan_count = $3, updated_at = NOW()
		WHERE user_id = $1`

	result, err := r.ExecContext(ctx, query, userID, scanCount, ecoScanCount)
	if err != nil {
		return fmt.Errorf("failed to set scan counters: %w", err)
	}
	ok, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user progress %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (r *userRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx, `SELECT user_id FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
