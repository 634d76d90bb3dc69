package audible

import (
	"errors"
	"fmt"
)

// ErrEmptyASIN is returned when a product lookup is attempted without an identifier
var ErrEmptyASIN = errors.New("audible: empty ASIN")

// ErrMissingProduct indicates a 2xx response without a product document
var ErrMissingProduct = errors.New("audible: response has no product")

// StatusError represents a non-success response from the catalog API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("audible catalog request failed: HTTP %d", e.StatusCode)
}
