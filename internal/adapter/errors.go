package adapter

import (
	"errors"
	"fmt"
)

// Error codes used by [StoreError.Code].
const (
	CodeUnavailable        = "unavailable"
	CodePermissionDenied   = "permission-denied"
	CodeUnauthenticated    = "unauthenticated"
	CodeNotFound           = "not-found"
	CodeInvalidArgument    = "invalid-argument"
	CodeFailedPrecondition = "failed-precondition"
	CodeAlreadyExists      = "already-exists"
	CodeDeadlineExceeded   = "deadline-exceeded"
	CodeInternal           = "internal"
	CodeUnknown            = "unknown"
)

var (
	// ErrUnavailable matches any [StoreError] with code "unavailable".
	ErrUnavailable = errors.New("document store unavailable")
	// ErrPermissionDenied matches any [StoreError] with code "permission-denied".
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound matches any [StoreError] with code "not-found".
	ErrNotFound = errors.New("document not found")
	// ErrInvalidWrite is returned for malformed batch writes.
	ErrInvalidWrite = errors.New("invalid write")
)

// StoreError is a typed failure reported by a [DocumentStore].
type StoreError struct {
	Code    string
	Message string
	Err     error
}

// NewStoreError returns a StoreError with the given code wrapping err.
func NewStoreError(code, message string, err error) *StoreError {
	return &StoreError{Code: code, Message: message, Err: err}
}

func (e *StoreError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels by code.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Code == CodeUnavailable
	case ErrPermissionDenied:
		return e.Code == CodePermissionDenied
	case ErrNotFound:
		return e.Code == CodeNotFound
	}
	return false
}

// ErrorCode returns the code of the first [StoreError] in err's chain, or ""
// if there is none.
func ErrorCode(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
