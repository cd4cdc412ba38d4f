package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"greenlens/internal/database"
	"greenlens/internal/models"
)

type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates a Postgres-backed badge repository
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// List returns the catalog in display order
func (r *badgeRepository) List(ctx context.Context) ([]models.Badge, error) {
	query := `
		SELECT id, name, description, icon, criteria_type, criteria_value, display_order, created_at
		FROM badges
		ORDER BY display_order, name`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.Icon, &b.CriteriaType,
			&b.CriteriaValue, &b.DisplayOrder, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate badges: %w", err)
	}
	return badges, nil
}

// Upsert inserts or updates a badge keyed by name
func (r *badgeRepository) Upsert(ctx context.Context, badge *models.Badge) error {
	if !badge.CriteriaType.Valid() {
		return fmt.Errorf("badge %q: unknown criteria type %q", badge.Name, badge.CriteriaType)
	}
	if badge.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate badge id: %w", err)
		}
		badge.ID = id
	}

	query := `
		INSERT INTO badges (id, name, description, icon, criteria_type, criteria_value, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			description    = EXCLUDED.description,
			icon           = EXCLUDED.icon,
			criteria_type  = EXCLUDED.criteria_type,
			criteria_value = EXCLUDED.criteria_value,
			display_order  = EXCLUDED.display_order
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		badge.ID, badge.Name, badge.Description, badge.Icon,
		badge.CriteriaType, badge.CriteriaValue, badge.DisplayOrder,
	).Scan(&badge.ID, &badge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert badge %q: %w", badge.Name, err)
	}
	return nil
}

func (r *badgeRepository) ListEarned(ctx context.Context, userID string) ([]models.UserBadge, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT user_id, badge_id, earned_at FROM user_badges WHERE user_id = $1 ORDER BY earned_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned badges: %w", err)
	}
	defer rows.Close()

	var earned []models.UserBadge
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge: %w", err)
		}
		earned = append(earned, ub)
	}
	return earned, rows.Err()
}

// Award relies on the (user_id, badge_id) primary key; a concurrent or
// repeated award inserts nothing and reports false.
func (r *badgeRepository) Award(ctx context.Context, userID string, badgeID uuid.UUID, at time.Time) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`

	result, err := r.ExecContext(ctx, query, userID, badgeID, at)
	if err != nil {
		r.GetLogger().Error("Failed to award badge",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID.String()),
		)
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return rowsAffected(result)
}

func (r *badgeRepository) CountEarned(ctx context.Context, userID string) (int, error) {
	n, err := r.countRow(ctx, `SELECT COUNT(*) FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count earned badges: %w", err)
	}
	return n, nil
}
