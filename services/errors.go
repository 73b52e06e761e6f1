package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so callers can map them to responses
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindStorage    ErrorKind = "storage"
	KindTooLarge   ErrorKind = "too_large"
	KindInternal   ErrorKind = "internal"
)

// Error is the only error type that leaves the service layer
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrNotFound) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrTooLarge   = &Error{Kind: KindTooLarge}
)

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: fmt.Sprintf(format, args...)}
}

func notFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func conflictError(code, message string, err error) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Err: err}
}

func storageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "STORAGE_ERROR", Message: message, Err: err}
}

func tooLargeError(rows, limit int64) *Error {
	return &Error{
		Kind:    KindTooLarge,
		Code:    "RESULT_TOO_LARGE",
		Message: fmt.Sprintf("Request matches %d orders, more than the limit of %d. Narrow the date range or filters.", rows, limit),
	}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "DATABASE_ERROR", Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for anything not raised by this package
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// asServiceError converts any error escaping a transaction into an *Error
func asServiceError(err error, message string) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return internalError(message, err)
}
