// Package persistence provides the storage abstraction for product records and approval documents.
package persistence

import (
	"context"

	"github.com/firecms/cms/pkg/models"
)

type Persistence interface {
	ProductRepository() ProductRepository
	DocumentRepository() DocumentRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProductRepository stores catalog products keyed by id.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]*models.Product, error)
	// GetByID returns ErrProductNotFound when no product has the id.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository stores approval documents.
//
// Save is a compare-and-swap on Document.Version: it succeeds only when the stored
// version equals the given one (0 for a new document) and then increments it.
// A stale version fails with ErrVersionConflict. Documents are never deleted.
type DocumentRepository interface {
	GetAll(ctx context.Context) ([]*models.Document, error)
	// GetByID returns ErrDocumentNotFound when no document has the id.
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Save(ctx context.Context, document *models.Document) error
}
