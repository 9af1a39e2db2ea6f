package file

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
)

var errInvalidDocumentID = errors.New("invalid document id")

// DocumentRepository keeps one JSON file per document under <root>/documents.
// The version check and write happen under a mutex, so it serialises writers within
// one process only.
type DocumentRepository struct {
	dir string
	mu  sync.Mutex
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(root string) *DocumentRepository {
	return &DocumentRepository{dir: filepath.Join(root, "documents")}
}

// GetAll returns every document, newest first.
func (dr *DocumentRepository) GetAll(_ context.Context) ([]*models.Document, error) {
	documents, err := readAll[models.Document](dr.dir)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(documents, func(i, j int) bool {
		return documents[i].CreatedAt.After(documents[j].CreatedAt)
	})

	return documents, nil
}

// GetByID retrieves a document by its ID from the file system.
func (dr *DocumentRepository) GetByID(_ context.Context, id string) (*models.Document, error) {
	if !models.IsSafeID(id) {
		return nil, persistence.NewDocumentError("GetByID", id, persistence.ErrDocumentNotFound)
	}

	document, err := readJSON[models.Document](dr.path(id))
	if err != nil {
		return nil, persistence.NewDocumentError("GetByID", id, err)
	}

	if document == nil {
		return nil, persistence.NewDocumentError("GetByID", id, persistence.ErrDocumentNotFound)
	}

	return document, nil
}

// Save writes the document if its version matches the stored one and bumps the version.
func (dr *DocumentRepository) Save(_ context.Context, document *models.Document) error {
	if !models.IsSafeID(document.ID) {
		return persistence.NewDocumentError("Save", document.ID, errInvalidDocumentID)
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()

	stored, err := readJSON[models.Document](dr.path(document.ID))
	if err != nil {
		return persistence.NewDocumentError("Save", document.ID, err)
	}

	storedVersion := 0
	if stored != nil {
		storedVersion = stored.Version
	}

	if storedVersion != document.Version {
		return persistence.NewVersionConflictError("Save", document.ID, document.Version)
	}

	now := time.Now().UTC()
	if document.CreatedAt.IsZero() {
		document.CreatedAt = now
	}

	document.UpdatedAt = now
	document.Version++

	err = writeJSON(dr.dir, document.ID, document)
	if err != nil {
		document.Version--

		return persistence.NewDocumentError("Save", document.ID, err)
	}

	return nil
}

func (dr *DocumentRepository) path(id string) string {
	return filepath.Join(dr.dir, id+".json")
}
