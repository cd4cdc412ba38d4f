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

type challengeRepository struct {
	*BaseRepository
}

// NewChallengeRepository creates a Postgres-backed challenge repository
func NewChallengeRepository(db *database.Manager, logger *zap.Logger) ChallengeRepository {
	return &challengeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const challengeColumns = `c.id, c.title, c.description, c.category, c.criteria, c.points_reward, c.is_active, c.created_at`

const enrollmentColumns = `uc.id, uc.user_id, uc.challenge_id, uc.progress, uc.completed, uc.completed_at, uc.created_at`

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	var (
		c        models.Challenge
		criteria []byte
	)
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &criteria,
		&c.PointsReward, &c.IsActive, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := models.ParseCriteria(c.Category, criteria)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", c.ID, err)
	}
	c.Criteria = parsed
	return &c, nil
}

// ===============================
// CATALOG
// ===============================

func (r *challengeRepository) ListActive(ctx context.Context) ([]*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE c.is_active ORDER BY c.created_at, c.title`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}
	return challenges, nil
}

// GetByID returns nil when the challenge does not exist
func (r *challengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE c.id = $1`

	c, err := scanChallenge(r.QueryRowContext(ctx, query, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// Upsert inserts or updates a challenge keyed by title
func (r *challengeRepository) Upsert(ctx context.Context, challenge *models.Challenge) error {
	criteria, err := models.EncodeCriteria(challenge.Criteria)
	if err != nil {
		return fmt.Errorf("failed to encode criteria: %w", err)
	}
	if challenge.Criteria.Kind() != challenge.Category {
		return fmt.Errorf("criteria kind %s does not match category %s", challenge.Criteria.Kind(), challenge.Category)
	}
	if challenge.ID == uuid.Nil {
		if challenge.ID, err = uuid.NewV4(); err != nil {
			return fmt.Errorf("failed to generate challenge id: %w", err)
		}
	}

	query := `
		INSERT INTO challenges (id, title, description, category, criteria, points_reward, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (title) DO UPDATE SET
			description   = EXCLUDED.description,
			category      = EXCLUDED.category,
			criteria      = EXCLUDED.criteria,
			points_reward = EXCLUDED.points_reward,
			is_active     = EXCLUDED.is_active
		RETURNING id, created_at`

	err = r.QueryRowContext(ctx, query,
		challenge.ID, challenge.Title, challenge.Description, challenge.Category,
		string(criteria), challenge.PointsReward, challenge.IsActive,
	).Scan(&challenge.ID, &challenge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert challenge %q: %w", challenge.Title, err)
	}
	return nil
}

// ===============================
// ENROLLMENTS
// ===============================

func scanEnrollment(row rowScanner, withChallenge bool) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	dest := []interface{}{
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress,
		&uc.Completed, &uc.CompletedAt, &uc.CreatedAt,
	}
	if !withChallenge {
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		return &uc, nil
	}

	var (
		c        models.Challenge
		criteria []byte
	)
	dest = append(dest, &c.ID, &c.Title, &c.Description, &c.Category, &criteria,
		&c.PointsReward, &c.IsActive, &c.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	parsed, err := models.ParseCriteria(c.Category, criteria)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", c.ID, err)
	}
	c.Criteria = parsed
	uc.Challenge = &c
	return &uc, nil
}

// Enroll creates the enrollment if missing. created is false when the user
// had already accepted the challenge.
func (r *challengeRepository) Enroll(ctx context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, bool, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate enrollment id: %w", err)
	}

	query := `
		INSERT INTO user_challenges AS uc (id, user_id, challenge_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, challenge_id) DO NOTHING
		RETURNING ` + enrollmentColumns

	uc, err := scanEnrollment(r.QueryRowContext(ctx, query, id, userID, challengeID), false)
	if err == nil {
		return uc, true, nil
	}
	if !r.IsNotFound(err) {
		return nil, false, fmt.Errorf("failed to enroll in challenge: %w", err)
	}

	existing, err := r.GetEnrollment(ctx, userID, challengeID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("enrollment for challenge %s: %w", challengeID, ErrNotFound)
	}
	return existing, false, nil
}

// GetEnrollment returns nil when the user has not accepted the challenge
func (r *challengeRepository) GetEnrollment(ctx context.Context, userID string, challengeID uuid.UUID) (*models.UserChallenge, error) {
	query := `
		SELECT ` + enrollmentColumns + `, ` + challengeColumns + `
		FROM user_challenges uc
		JOIN challenges c ON c.id = uc.challenge_id
		WHERE uc.user_id = $1 AND uc.challenge_id = $2`

	uc, err := scanEnrollment(r.QueryRowContext(ctx, query, userID, challengeID), true)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return uc, nil
}

func (r *challengeRepository) ListEnrollments(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	return r.listEnrollments(ctx, userID, false)
}

func (r *challengeRepository) ListOpenEnrollments(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	return r.listEnrollments(ctx, userID, true)
}

func (r *challengeRepository) listEnrollments(ctx context.Context, userID string, openOnly bool) ([]*models.UserChallenge, error) {
	query := `
		SELECT ` + enrollmentColumns + `, ` + challengeColumns + `
		FROM user_challenges uc
		JOIN challenges c ON c.id = uc.challenge_id
		WHERE uc.user_id = $1 AND (NOT $2 OR uc.completed = FALSE)
		ORDER BY uc.created_at, c.title`

	rows, err := r.QueryContext(ctx, query, userID, openOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.UserChallenge
	for rows.Next() {
		uc, err := scanEnrollment(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *challengeRepository) UpdateProgress(ctx context.Context, enrollmentID uuid.UUID, progress int) error {
	query := `UPDATE user_challenges SET progress = $2 WHERE id = $1 AND completed = FALSE`

	if _, err := r.ExecContext(ctx, query, enrollmentID, progress); err != nil {
		return fmt.Errorf("failed to update challenge progress: %w", err)
	}
	return nil
}

// MarkCompleted only matches an open enrollment, so a second call for the
// same enrollment changes nothing and reports false.
func (r *challengeRepository) MarkCompleted(ctx context.Context, enrollmentID uuid.UUID, progress int, at time.Time) (bool, error) {
	query := `
		UPDATE user_challenges SET progress = $2, completed = TRUE, completed_at = $3
		WHERE id = $1 AND completed = FALSE`

	result, err := r.ExecContext(ctx, query, enrollmentID, progress, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete challenge: %w", err)
	}
	return rowsAffected(result)
}

func (r *challengeRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	n, err := r.countRow(ctx, `SELECT COUNT(*) FROM user_challenges WHERE user_id = $1 AND completed`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed challenges: %w", err)
	}
	return n, nil
}
