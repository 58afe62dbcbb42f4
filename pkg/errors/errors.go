package errors

import "errors"

// Error codes shared across the domain services.
const (
	CodeInvalidInput       = "invalid_input"
	CodeInvalidImage       = "invalid_image"
	CodeInvalidState       = "invalid_state"
	CodeNotRegistered      = "not_registered"
	CodeStaleAttempt       = "stale_attempt"
	CodeRemoteFailure      = "remote_failure"
	CodeDecodeFailure      = "decode_failure"
	CodePersistenceCorrupt = "persistence_corrupt"
	CodeStorageFailure     = "storage_failure"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
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

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps callers differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the code carried by err, or empty when err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
