package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greenlens/internal/carbon"
	"greenlens/internal/config"
	"greenlens/internal/database"
	"greenlens/internal/models"
)

func newMockManager(t *testing.T) (*database.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.DatabaseConfig{SlowQueryThreshold: time.Second}
	return database.NewManagerFromDB(db, cfg, zap.NewNop()), mock
}

var productColumnNames = []string{
	"id", "barcode", "name", "brand", "category", "raw_categories", "packaging", "quantity",
	"nova_group", "ingredients", "image_url", "nutri_score", "carbon_footprint", "eco_score",
	"scan_count", "created_at", "updated_at",
}

func productRow(rows *sqlmock.Rows, barcode string, footprint float64, grade carbon.Grade, scans int) *sqlmock.Rows {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(
		uuid.Must(uuid.NewV4()).String(), barcode, "Product "+barcode, nil, "beverages", "beverages,en:cola", nil, nil,
		nil, nil, nil, nil, footprint, string(grade),
		scans, now, now,
	)
}

// ===============================
// PRODUCTS
// ===============================

func TestFindAlternatives_QueryShape(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewProductRepository(db, zap.NewNop())

	rows := sqlmock.NewRows(productColumnNames)
	productRow(rows, "11111111", 0.2, carbon.GradeA, 1)
	productRow(rows, "22222222", 0.4, carbon.GradeB, 9)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE carbon_footprint < $1 AND eco_score = ANY($2) AND NOT (barcode = ANY($3)) ` +
			`AND (category ILIKE $4 ESCAPE '\' OR raw_categories ILIKE $5 ESCAPE '\') ` +
			`ORDER BY eco_score ASC, carbon_footprint ASC, scan_count DESC LIMIT $6`,
	)).
		WithArgs(1.5, pq.Array([]string{"A", "B"}), pq.Array([]string{"5449000000996"}), "%beverages%", "%cola%", 3).
		WillReturnRows(rows)

	products, err := repo.FindAlternatives(context.Background(), AlternativeQuery{
		CategoryContains:    "beverages",
		RawCategoryContains: "cola",
		FootprintBelow:      1.5,
		Grades:              []carbon.Grade{carbon.GradeA, carbon.GradeB},
		ExcludeBarcodes:     []string{"5449000000996"},
		Limit:               3,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "11111111", products[0].Barcode)
	assert.Equal(t, carbon.GradeA, products[0].EcoScore)
	assert.Equal(t, 9, products[1].ScanCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAlternatives_SinglePatternNumbersPlaceholders(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewProductRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`AND (raw_categories ILIKE $4 ESCAPE '\') ORDER BY`) + `.*` + regexp.QuoteMeta(`LIMIT $5`)).
		WithArgs(2.0, pq.Array([]string{"A"}), pq.Array([]string{}), `%50\%\_off%`, 2).
		WillReturnRows(sqlmock.NewRows(productColumnNames))

	products, err := repo.FindAlternatives(context.Background(), AlternativeQuery{
		RawCategoryContains: "50%_off",
		FootprintBelow:      2.0,
		Grades:              []carbon.Grade{carbon.GradeA},
		Limit:               2,
	})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAlternatives_NoMatchTermsSkipsQuery(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewProductRepository(db, zap.NewNop())

	products, err := repo.FindAlternatives(context.Background(), AlternativeQuery{FootprintBelow: 1, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, products)

	products, err = repo.FindAlternatives(context.Background(), AlternativeQuery{CategoryContains: "snacks", Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreate_ConflictReportsNotCreated(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewProductRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (barcode) DO NOTHING RETURNING created_at, updated_at`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	created, err := repo.Create(context.Background(), &models.Product{Barcode: "40084107", Name: "Oat Drink", EcoScore: carbon.GradeA})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ===============================
// USER PROGRESS
// ===============================

var progressColumnNames = []string{
	"user_id", "total_points", "streak_days", "last_scan_date", "last_active_at",
	"scan_count", "eco_scan_count", "created_at", "updated_at",
}

func TestApplyScan_KeepsStreakWhenUnchanged(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewUserRepository(db, zap.NewNop())

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	active := day.Add(9 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`last_scan_date = $4::date, streak_days = COALESCE($5, streak_days), scan_count = scan_count + 1, eco_scan_count = eco_scan_count + $6`)).
		WithArgs("u1", 10, active, "2026-03-10", nil, 1).
		WillReturnRows(sqlmock.NewRows(progressColumnNames).
			AddRow("u1", 30, 4, day, active, 3, 2, day, active))

	progress, err := repo.ApplyScan(context.Background(), "u1", models.ProgressUpdate{
		PointsDelta:  10,
		LastScanDate: day,
		LastActiveAt: active,
		EcoScan:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, progress.StreakDays)
	assert.Equal(t, 30, progress.TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyScan_WritesChangedStreak(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewUserRepository(db, zap.NewNop())

	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	streak := 5

	mock.ExpectQuery(regexp.QuoteMeta(`streak_days = COALESCE($5, streak_days)`)).
		WithArgs("u1", 10, day, "2026-03-11", 5, 0).
		WillReturnRows(sqlmock.NewRows(progressColumnNames).
			AddRow("u1", 40, 5, day, day, 4, 2, day, day))

	progress, err := repo.ApplyScan(context.Background(), "u1", models.ProgressUpdate{
		PointsDelta:  10,
		StreakDays:   &streak,
		LastScanDate: day,
		LastActiveAt: day,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, progress.StreakDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProgress(t *testing.T) {
	t.Run("requires a transaction", func(t *testing.T) {
		db, mock := newMockManager(t)
		repo := NewUserRepository(db, zap.NewNop())

		_, err := repo.LockProgress(context.Background(), "u1")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row wraps ErrNotFound", func(t *testing.T) {
		db, mock := newMockManager(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM user_progress WHERE user_id = $1 FOR UPDATE`)).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, err := repo.LockProgress(ctx, "ghost")
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// ===============================
// CHALLENGES
// ===============================

func TestMarkCompleted_OnlyOpenEnrollments(t *testing.T) {
	db, mock := newMockManager(t)
	repo := NewChallengeRepository(db, zap.NewNop())

	id := uuid.Must(uuid.NewV4())
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta(`SET progress = $2, completed = TRUE, completed_at = $3 WHERE id = $1 AND completed = FALSE`)

	mock.ExpectExec(query).WithArgs(id, 5, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(id, 5, at).WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkCompleted(context.Background(), id, 5, at)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkCompleted(context.Background(), id, 5, at)
	require.NoError(t, err)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
