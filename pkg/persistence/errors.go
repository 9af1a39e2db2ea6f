// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrProductNotFound indicates a product was not found by the given identifier.
	ErrProductNotFound = errors.New("product not found")

	// ErrDocumentNotFound indicates an approval document was not found by the given identifier.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrVersionConflict indicates a document was modified since it was read.
	ErrVersionConflict = errors.New("document version conflict")
)

// ProductError wraps product-related errors with additional context.
type ProductError struct {
	Op        string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	ProductID string
	Err       error
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("%s operation failed for product %s: %v", e.Op, e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for product errors.
func (e *ProductError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewProductError creates a new product error with context.
func NewProductError(op, productID string, err error) *ProductError {
	return &ProductError{
		Op:        op,
		ProductID: productID,
		Err:       err,
	}
}

// DocumentError wraps document-related errors with additional context.
type DocumentError struct {
	Op         string
	DocumentID string
	Version    int // Version the caller held, for conflicts
	Err        error
}

func (e *DocumentError) Error() string {
	if errors.Is(e.Err, ErrVersionConflict) {
		return fmt.Sprintf("%s operation failed for document %s at version %d: %v", e.Op, e.DocumentID, e.Version, e.Err)
	}

	return fmt.Sprintf("%s operation failed for document %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDocumentError creates a new document error with context.
func NewDocumentError(op, documentID string, err error) *DocumentError {
	return &DocumentError{
		Op:         op,
		DocumentID: documentID,
		Err:        err,
	}
}

// NewVersionConflictError reports that version is no longer the stored version of documentID.
func NewVersionConflictError(op, documentID string, version int) *DocumentError {
	return &DocumentError{
		Op:         op,
		DocumentID: documentID,
		Version:    version,
		Err:        ErrVersionConflict,
	}
}

// IsProductNotFound checks if an error indicates a product was not found.
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsDocumentNotFound checks if an error indicates a document was not found.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsVersionConflict checks if an error indicates a stale document version.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
