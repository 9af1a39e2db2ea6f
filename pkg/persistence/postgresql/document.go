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

var errInvalidDocumentID = errors.New("invalid document id")

// DocumentRepository handles approval document database operations.
// Title, status and version are kept in columns next to the JSON body for listing and
// for the version guard on update.
type DocumentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB, logger *slog.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

// GetAll returns every document, newest first.
func (dr *DocumentRepository) GetAll(ctx context.Context) ([]*models.Document, error) {
	query := `
		SELECT data
		FROM approval_documents
		ORDER BY created_at DESC, id
	`

	rows, err := dr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	defer closeRows(ctx, dr.logger, rows)

	documents := make([]*models.Document, 0)

	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return documents, nil
}

// GetByID retrieves a document by its ID.
func (dr *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if !models.IsSafeID(id) {
		return nil, persistence.NewDocumentError("GetByID", id, persistence.ErrDocumentNotFound)
	}

	document, err := scanDocument(dr.db.QueryRowContext(ctx, "SELECT data FROM approval_documents WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDocumentError("GetByID", id, persistence.ErrDocumentNotFound)
		}

		return nil, persistence.NewDocumentError("GetByID", id, err)
	}

	return document, nil
}

// Save inserts a new document (Version 0) or updates the row holding document.Version.
// Zero affected rows means another writer got there first.
func (dr *DocumentRepository) Save(ctx context.Context, document *models.Document) error {
	if !models.IsSafeID(document.ID) {
		return persistence.NewDocumentError("Save", document.ID, errInvalidDocumentID)
	}

	expected := document.Version
	createdAt := document.CreatedAt
	updatedAt := document.UpdatedAt

	now := time.Now().UTC()
	if document.CreatedAt.IsZero() {
		document.CreatedAt = now
	}

	document.UpdatedAt = now
	document.Version = expected + 1

	affected, err := dr.write(ctx, document, expected)
	if err != nil || affected == 0 {
		document.Version = expected
		document.CreatedAt = createdAt
		document.UpdatedAt = updatedAt
	}

	if err != nil {
		return persistence.NewDocumentError("Save", document.ID, err)
	}

	if affected == 0 {
		return persistence.NewVersionConflictError("Save", document.ID, expected)
	}

	return nil
}

func (dr *DocumentRepository) write(ctx context.Context, document *models.Document, expected int) (int64, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal document: %w", err)
	}

	var result sql.Result

	if expected == 0 {
		result, err = dr.db.ExecContext(ctx, `
			INSERT INTO approval_documents (id, title, status, version, data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`,
			document.ID,
			document.Title,
			document.Status,
			document.Version,
			data,
			document.CreatedAt,
			document.UpdatedAt,
		)
	} else {
		result, err = dr.db.ExecContext(ctx, `
			UPDATE approval_documents
			SET title = $3, status = $4, version = $5, data = $6, updated_at = $7
			WHERE id = $1 AND version = $2
		`,
			document.ID,
			expected,
			document.Title,
			document.Status,
			document.Version,
			data,
			document.UpdatedAt,
		)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to save document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected, nil
}

func scanDocument(row scanner) (*models.Document, error) {
	var data []byte

	err := row.Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	var document models.Document

	err = json.Unmarshal(data, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &document, nil
}
