package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
)

// ProductRepository handles product-related database operations.
type ProductRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sql.DB, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{db: db, logger: logger}
}

// GetAll returns every product ordered by id.
func (pr *ProductRepository) GetAll(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT data, created_at, updated_at
		FROM products
		ORDER BY id
	`

	rows, err := pr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	defer closeRows(ctx, pr.logger, rows)

	products := make([]*models.Product, 0)

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a product by its ID.
func (pr *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if !models.IsSafeID(id) {
		return nil, persistence.NewProductError("GetByID", id, persistence.ErrProductNotFound)
	}

	query := `
		SELECT data, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product, err := scanProduct(pr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewProductError("GetByID", id, persistence.ErrProductNotFound)
		}

		return nil, persistence.NewProductError("GetByID", id, err)
	}

	return product, nil
}

// Save creates or replaces a product. The stored creation time is preserved on update.
func (pr *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	if err := models.ValidateProductID(product.ID); err != nil {
		return persistence.NewProductError("Save", product.ID, err)
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}

	product.UpdatedAt = now

	data, err := json.Marshal(product)
	if err != nil {
		return persistence.NewProductError("Save", product.ID, fmt.Errorf("failed to marshal product: %w", err))
	}

	query := `
		INSERT INTO products (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	var createdAt time.Time

	err = pr.db.QueryRowContext(ctx, query, product.ID, data, product.CreatedAt, product.UpdatedAt).Scan(&createdAt)
	if err != nil {
		return persistence.NewProductError("Save", product.ID, fmt.Errorf("failed to save product: %w", err))
	}

	product.CreatedAt = createdAt.UTC()

	return nil
}

// Delete removes a product. Deleting a missing product is not an error.
func (pr *ProductRepository) Delete(ctx context.Context, id string) error {
	if !models.IsSafeID(id) {
		return nil
	}

	_, err := pr.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return persistence.NewProductError("Delete", id, fmt.Errorf("failed to delete product: %w", err))
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		data                 []byte
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&data, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	var product models.Product

	err = json.Unmarshal(data, &product)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	product.CreatedAt = createdAt.UTC()
	product.UpdatedAt = updatedAt.UTC()

	return &product, nil
}
