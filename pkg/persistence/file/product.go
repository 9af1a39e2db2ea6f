package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
)

// ProductRepository keeps one JSON file per product under <root>/products.
type ProductRepository struct {
	dir string
}

// NewProductRepository creates a new product repository.
func NewProductRepository(root string) *ProductRepository {
	return &ProductRepository{dir: filepath.Join(root, "products")}
}

// GetAll returns every product ordered by id.
func (pr *ProductRepository) GetAll(_ context.Context) ([]*models.Product, error) {
	return readAll[models.Product](pr.dir)
}

// GetByID retrieves a product by its ID from the file system.
func (pr *ProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	if err := models.ValidateProductID(id); err != nil {
		return nil, persistence.NewProductError("GetByID", id, persistence.ErrProductNotFound)
	}

	product, err := readJSON[models.Product](filepath.Join(pr.dir, id+".json"))
	if err != nil {
		return nil, persistence.NewProductError("GetByID", id, err)
	}

	if product == nil {
		return nil, persistence.NewProductError("GetByID", id, persistence.ErrProductNotFound)
	}

	return product, nil
}

// Save creates or replaces a product.
func (pr *ProductRepository) Save(_ context.Context, product *models.Product) error {
	if err := models.ValidateProductID(product.ID); err != nil {
		return persistence.NewProductError("Save", product.ID, err)
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}

	product.UpdatedAt = now

	err := writeJSON(pr.dir, product.ID, product)
	if err != nil {
		return persistence.NewProductError("Save", product.ID, err)
	}

	return nil
}

// Delete removes a product by its ID. Deleting a missing product is not an error.
func (pr *ProductRepository) Delete(_ context.Context, id string) error {
	if err := models.ValidateProductID(id); err != nil {
		return nil
	}

	err := os.Remove(filepath.Join(pr.dir, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewProductError("Delete", id, fmt.Errorf("failed to delete product: %w", err))
	}

	return nil
}
