// Package services implements the product page and approval document use cases on top of persistence.
package services

import (
	"errors"
	"fmt"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/schema"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidProduct     = schema.ErrInvalidProduct
	ErrInvalidProductID   = models.ErrInvalidProductID
	ErrInvalidAction      = errors.New("action must be approve or reject")
	ErrInvalidStatus      = errors.New("invalid document status")
	ErrApprovalFlowEmpty  = errors.New("approval flow must have at least one approver")
	ErrDuplicateApprover  = errors.New("approver appears more than once in the approval flow")
	ErrApproverIDRequired = errors.New("approver id is required")

	// Not Found (404).
	ErrProductNotFound   = persistence.ErrProductNotFound
	ErrDocumentNotFound  = persistence.ErrDocumentNotFound
	ErrApproverNotInFlow = errors.New("approver is not part of the approval flow")

	// Business Logic Conflicts (409 Conflict).
	ErrDocumentConflict = errors.New("document was changed by someone else")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrApprovalFlowEmpty) ||
		errors.Is(err, ErrDuplicateApprover) ||
		errors.Is(err, ErrApproverIDRequired)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrApproverNotInFlow)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDocumentConflict)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
