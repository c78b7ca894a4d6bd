package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
// Nothing is persisted when a validation error is returned.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists,
// including replays of an already-applied idempotency key.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates valid input that conflicts with current state:
// a duplicate salary payment for a period, a payment exceeding the remaining balance,
// or a cancellation attempted after payments have been made.
var ErrConflict = errors.New("operation conflicts with current state")

// ErrConcurrency indicates lock contention or a serialization failure.
// The whole operation is safe to retry from scratch.
var ErrConcurrency = errors.New("concurrent update conflict")

// ErrIntegrity indicates a domain invariant would be broken (e.g. installments not
// summing to the loan principal). This is a bug or data corruption, never coerced.
var ErrIntegrity = errors.New("integrity violation")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
