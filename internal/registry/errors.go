package registry

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("tv not found")

// ValidationError reports input the registry refuses to store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func notFound(id int) error {
	return fmt.Errorf("tv %d: %w", id, ErrNotFound)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
