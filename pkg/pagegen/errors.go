package pagegen

import (
	"errors"
	"fmt"
)

// GenerationError reports a failed page generation for one product.
type GenerationError struct {
	ProductID string // Product whose page was being generated
	Op        string // Step that failed, e.g. "mkdir", "render", "write"
	Path      string // File or directory involved, if any
	Err       error  // Underlying error
}

func (e *GenerationError) Error() string {
	subject := "page generation failed"
	if e.ProductID != "" {
		subject += " for product " + e.ProductID
	}

	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", subject, e.Op, e.Path, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", subject, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError checks if err carries a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError

	return errors.As(err, &genErr)
}
