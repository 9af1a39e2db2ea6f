// Package pagegen writes the static "B-type" product detail page for a product record.
//
// Each product gets its own directory under <site-root>/app/products/b-type holding an
// entry file that declares page metadata and a client file with the full detail view.
// Output depends only on the product record, so regenerating is an idempotent overwrite.
// Concurrent generation for the same product id is last-writer-wins.
package pagegen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/firecms/cms/pkg/models"
)

const (
	// PagesDir is the B-type page tree relative to the site root.
	PagesDir = "app/products/b-type"

	EntryFileName  = "page.tsx"
	ClientFileName = "client.tsx"

	entryTemplate  = "entry.tsx.tmpl"
	clientTemplate = "client.tsx.tmpl"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Page holds the rendered content of both files.
type Page struct {
	ProductID string `json:"product_id"`
	Entry     string `json:"entry"`
	Client    string `json:"client"`
}

// Generator renders and writes product pages under a site root.
type Generator struct {
	root   string
	logger *slog.Logger
}

// NewGenerator creates a generator writing into siteRoot/PagesDir.
func NewGenerator(logger *slog.Logger, siteRoot string) *Generator {
	return &Generator{
		root:   filepath.Join(siteRoot, filepath.FromSlash(PagesDir)),
		logger: logger,
	}
}

// Root returns the directory that holds one sub-directory per product.
func (g *Generator) Root() string {
	return g.root
}

// Dir returns the directory a product's files are written to.
func (g *Generator) Dir(productID string) string {
	return filepath.Join(g.root, productID)
}

// Render produces both files without touching the filesystem.
func (g *Generator) Render(product *models.Product) (*Page, error) {
	if product == nil {
		return nil, &GenerationError{Op: "validate", Err: models.ErrInvalidProductID}
	}

	err := models.ValidateProductID(product.ID)
	if err != nil {
		return nil, &GenerationError{ProductID: product.ID, Op: "validate", Err: err}
	}

	ctx := newPageContext(product)

	entry, err := render(entryTemplate, ctx)
	if err != nil {
		return nil, &GenerationError{ProductID: product.ID, Op: "render", Path: EntryFileName, Err: err}
	}

	client, err := render(clientTemplate, ctx)
	if err != nil {
		return nil, &GenerationError{ProductID: product.ID, Op: "render", Path: ClientFileName, Err: err}
	}

	return &Page{ProductID: product.ID, Entry: string(entry), Client: string(client)}, nil
}

// Generate renders the page for product and writes both files into its directory,
// entry first. A failure after the entry file was written leaves it in place; callers
// re-run generation to repair.
func (g *Generator) Generate(ctx context.Context, product *models.Product) error {
	page, err := g.Render(product)
	if err != nil {
		return err
	}

	dir := g.Dir(product.ID)

	err = os.MkdirAll(dir, dirPerm)
	if err != nil {
		return &GenerationError{ProductID: product.ID, Op: "mkdir", Path: dir, Err: err}
	}

	files := []struct {
		name    string
		content string
	}{
		{EntryFileName, page.Entry},
		{ClientFileName, page.Client},
	}

	for _, file := range files {
		path := filepath.Join(dir, file.name)

		err = writeFileAtomic(path, []byte(file.content))
		if err != nil {
			return &GenerationError{ProductID: product.ID, Op: "write", Path: path, Err: err}
		}
	}

	g.logger.InfoContext(ctx, "Generated product page", "product_id", product.ID, "dir", dir)

	return nil
}

// writeFileAtomic replaces path through a sibling temp file so readers never see a truncated file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(filePerm)
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}
