// Package schema checks product records against the embedded JSON schema before they are stored.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidProduct is returned when a product record does not match the schema.
var ErrInvalidProduct = errors.New("invalid product")

//go:embed product.schema.json
var productSchema []byte

var compiledProduct = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(productSchema))
})

// ValidationError lists every schema violation of one record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidProduct, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidProduct
}

// ValidateProductJSON validates one encoded product record.
func ValidateProductJSON(raw []byte) error {
	return validate(gojsonschema.NewBytesLoader(raw))
}

// ValidateProduct validates a decoded record, for example a product bound from a request.
func ValidateProduct(product any) error {
	return validate(gojsonschema.NewGoLoader(product))
}

func validate(document gojsonschema.JSONLoader) error {
	compiled, err := compiledProduct()
	if err != nil {
		return fmt.Errorf("failed to compile product schema: %w", err)
	}

	result, err := compiled.Validate(document)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		problems = append(problems, resultError.String())
	}

	return &ValidationError{Problems: problems}
}
