package utils

import "errors"

// Error taxonomy codes returned by the service layer
const (
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION"
	CodeIntegrityViolation = "INTEGRITY_VIOLATION"
	CodeExternalDependency = "EXTERNAL_DEPENDENCY"
)

// AppError is a structured business error carrying a taxonomy code
type AppError struct {
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func ConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func ValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// IntegrityError marks a security-relevant mismatch (e.g. webhook amount tampering).
// The message is for logs only; controllers must not leak mismatch details.
func IntegrityError(message string) *AppError {
	return &AppError{Code: CodeIntegrityViolation, Message: message}
}

func ExternalError(message string) *AppError {
	return &AppError{Code: CodeExternalDependency, Message: message}
}

// AsAppError unwraps err into an AppError if it is one
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
