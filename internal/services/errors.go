package services

import "errors"

// Sentinel errors for catalog operations. Wrap with fmt.Errorf("%w") when
// adding context; handlers check them with errors.Is.
var (
	// ErrProductNotFound indicates the product id does not exist.
	// HTTP Status: 404 Not Found
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateSKU indicates the sku collides with an existing product.
	// HTTP Status: 400 Bad Request, with the sku-specific message
	ErrDuplicateSKU = errors.New("product with this SKU already exists")
)

// ValidationError carries the user-facing message for a rejected field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(msg string) error {
	return &ValidationError{Message: msg}
}
