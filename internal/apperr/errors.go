// Package apperr defines the error taxonomy shared by the store, service and
// transport layers. Callers match with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrDecryption         = errors.New("incorrect password or corrupted data")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrAlreadyExists      = errors.New("already exists")
)

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Validation wraps an arbitrary validation error (for example the
// ozzo-validation field map) so it matches ErrValidation.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Backend marks err as a storage failure while keeping the driver error in
// the chain.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}
