// Package file provides file-based persistence for products and approval documents.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/firecms/cms/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	productRepo  *ProductRepository
	documentRepo *DocumentRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		productRepo:  NewProductRepository(cleanRoot),
		documentRepo: NewDocumentRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) ProductRepository() persistence.ProductRepository {
	return fp.productRepo
}

func (fp *Persistence) DocumentRepository() persistence.DocumentRepository {
	return fp.documentRepo
}

// readAll decodes every <dir>/*.json file in name order.
func readAll[T any](dir string) ([]*T, error) {
	files, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", dir, err)
	}

	records := make([]*T, 0, len(files))

	for _, name := range files {
		record, err := readJSON[T](filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

// readJSON returns nil, nil when the file does not exist.
func readJSON[T any](path string) (*T, error) {
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return &record, nil
}

func writeJSON(dir, id string, record any) error {
	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return os.WriteFile(filepath.Join(dir, id+".json"), data, 0600)
}
