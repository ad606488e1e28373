package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the service. Callers test them with errors.Is; every
// other error is an infrastructure failure.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// kindError carries a user-facing message and unwraps to its kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func validationError(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func notFound(entity string) error {
	return &kindError{kind: ErrNotFound, msg: entity + " not found"}
}

func conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) error {
	return &kindError{kind: ErrUnauthorized, msg: msg}
}

// userMessage hides infrastructure details from results shown to clients
func userMessage(err error) string {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrForbidden, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return err.Error()
		}
	}
	return "internal error"
}
