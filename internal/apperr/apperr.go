// Package apperr defines the error kinds shared by every service and
// handler. Handlers translate them to HTTP status codes in one place.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation")               // 400
	ErrForbidden             = errors.New("forbidden")                // 403
	ErrNotFound              = errors.New("not found")                // 404
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token") // 400
)

// InsufficientStockError names the product that could not be fulfilled.
type InsufficientStockError struct {
	ProductID uint
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q (product %d)", e.Name, e.ProductID)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
