// Package apperr defines the error kinds that cross package boundaries and
// the request boundary maps onto HTTP statuses.
package apperr

import "errors"

// Kinds. Domain errors wrap exactly one of these.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
)

// Error is a domain error carrying a user-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// New returns a domain error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error { return New(ErrNotFound, message) }

func Validation(message string) *Error { return New(ErrValidation, message) }

func Conflict(message string) *Error { return New(ErrConflict, message) }

func Forbidden(message string) *Error { return New(ErrForbidden, message) }

// ServiceError reports a failed external dependency (LLM, blob store).
// Detail is safe to show to clients; Err is not.
type ServiceError struct {
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	return e.Detail + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Service wraps err as a ServiceError. A nil err yields nil.
func Service(detail string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Detail: detail, Err: err}
}

// Message returns the user-facing message for err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	var se *ServiceError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
