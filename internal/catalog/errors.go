package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested product id does not exist.
var ErrNotFound = errors.New("product not found")

// ValidationError marks caller-fixable input problems. Handlers map it to a
// 400-class response; everything else that is not ErrNotFound is treated as
// an infrastructure failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation unwraps err into a *ValidationError if it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
