package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"greenlens/internal/database"
	"greenlens/internal/models"
)

type productRepository struct {
	*BaseRepository
}

// NewProductRepository creates a Postgres-backed product repository
func NewProductRepository(db *database.Manager, logger *zap.Logger) ProductRepository {
	return &productRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const productColumns = `
	id, barcode, name, brand, category, raw_categories, packaging, quantity,
	nova_group, ingredients, image_url, nutri_score, carbon_footprint, eco_score,
	scan_count, created_at, updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Barcode, &p.Name, &p.Brand, &p.Category, &p.RawCategories,
		&p.Packaging, &p.Quantity, &p.NovaGroup, &p.Ingredients, &p.ImageURL,
		&p.NutriScore, &p.CarbonFootprint, &p.EcoScore, &p.ScanCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the product; an existing barcode leaves the stored row as is
func (r *productRepository) Create(ctx context.Context, product *models.Product) (bool, error) {
	if product.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return false, fmt.Errorf("failed to generate product id: %w", err)
		}
		product.ID = id
	}

	query := `
		INSERT INTO products (
			id, barcode, name, brand, category, raw_categories, packaging, quantity,
			nova_group, ingredients, image_url, nutri_score, carbon_footprint, eco_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (barcode) DO NOTHING
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		product.ID, product.Barcode, product.Name, product.Brand, product.Category,
		product.RawCategories, product.Packaging, product.Quantity, product.NovaGroup,
		product.Ingredients, product.ImageURL, product.NutriScore,
		product.CarbonFootprint, product.EcoScore,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if r.IsNotFound(err) {
			return false, nil
		}
		r.GetLogger().Error("Failed to create product",
			zap.Error(err),
			zap.String("barcode", product.Barcode),
		)
		return false, fmt.Errorf("failed to create product: %w", err)
	}

	return true, nil
}

// GetByBarcode returns nil when no product has the barcode
func (r *productRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`

	product, err := scanProduct(r.QueryRowContext(ctx, query, barcode))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}
	return product, nil
}

// GetByID returns nil when the product does not exist
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.QueryRowContext(ctx, query, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return product, nil
}

func (r *productRepository) IncrementScanCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET scan_count = scan_count + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment product scan count: %w", err)
	}
	ok, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindAlternatives orders by grade, then footprint, then popularity
func (r *productRepository) FindAlternatives(ctx context.Context, q AlternativeQuery) ([]*models.Product, error) {
	if q.Limit <= 0 {
		return []*models.Product{}, nil
	}

	grades := make([]string, 0, len(q.Grades))
	for _, g := range q.Grades {
		grades = append(grades, string(g))
	}

	exclude := q.ExcludeBarcodes
	if exclude == nil {
		exclude = []string{}
	}

	args := []interface{}{q.FootprintBelow, pq.Array(grades), pq.Array(exclude)}
	var match []string
	if q.CategoryContains != "" {
		args = append(args, containsPattern(q.CategoryContains))
		match = append(match, fmt.Sprintf(`category ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if q.RawCategoryContains != "" {
		args = append(args, containsPattern(q.RawCategoryContains))
		match = append(match, fmt.Sprintf(`raw_categories ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(match) == 0 {
		return []*models.Product{}, nil
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE carbon_footprint < $1
		  AND eco_score = ANY($2)
		  AND NOT (barcode = ANY($3))
		  AND (%s)
		ORDER BY eco_score ASC, carbon_footprint ASC, scan_count DESC
		LIMIT $%d`, productColumns, strings.Join(match, " OR "), len(args))

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alternatives: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alternative: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alternatives: %w", err)
	}

	return products, nil
}
