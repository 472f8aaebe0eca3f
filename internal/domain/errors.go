package domain

import (
	"errors"
	"net/http"
)

// Error codes for business logic errors.
const (
	CodeNotFound        = 1
	CodeAlreadyExists   = 2
	CodeValidation      = 3
	CodeInternal        = 4
	CodeUnauthorized    = 5
	CodeForbidden       = 6
	CodeConflict        = 7
	CodeBadRequest      = 8
	CodeTooManyRequests = 9
)

// FieldError describes a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// AppError represents a business logic error.
//
// Label is the stable machine-readable value rendered as the "error" field of
// the response body; Message is human-readable guidance. Details carries
// per-field validation failures.
type AppError struct {
	Code    int          `json:"code"`
	Label   string       `json:"error"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Err     error        `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNotFound, IsAlreadyExists, etc.)
// instead of errors.Is. The helpers use errors.As with error-code
// comparison, so they correctly match any *AppError that carries the
// same code, including freshly constructed instances and wrapped errors.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Label: "Record not found", Message: "The requested record does not exist"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Label: "Duplicate entry", Message: "A record with this information already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Label: "Validation failed", Message: "Invalid input data"}
	ErrInternal      = &AppError{Code: CodeInternal, Label: "Internal server error", Message: "Something went wrong"}
	ErrUnauthorized  = &AppError{Code: CodeUnauthorized, Label: "Invalid credentials", Message: "Email or password is incorrect"}
	ErrForbidden     = &AppError{Code: CodeForbidden, Label: "Admin access required", Message: "You need admin privileges to access this resource"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
// The label defaults to the one of the matching predefined error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Label:   defaultLabel(code),
		Message: message,
		Err:     err,
	}
}

// NewLabeledError creates an AppError with an explicit label.
func NewLabeledError(code int, label, message string) *AppError {
	return &AppError{Code: code, Label: label, Message: message}
}

// NewValidationError creates a validation AppError listing every offending field.
func NewValidationError(details []FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Label:   ErrValidation.Label,
		Message: ErrValidation.Message,
		Details: details,
	}
}

func defaultLabel(code int) string {
	switch code {
	case CodeNotFound:
		return ErrNotFound.Label
	case CodeAlreadyExists:
		return ErrAlreadyExists.Label
	case CodeValidation:
		return ErrValidation.Label
	case CodeUnauthorized:
		return ErrUnauthorized.Label
	case CodeForbidden:
		return "Forbidden"
	case CodeConflict:
		return "Conflict"
	case CodeBadRequest:
		return "Bad request"
	case CodeTooManyRequests:
		return "Too many requests"
	default:
		return ErrInternal.Label
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is or wraps an AppError with CodeAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsForbidden reports whether err is or wraps an AppError with CodeForbidden.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// IsConflict reports whether err is or wraps an AppError with CodeConflict.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExists, CodeConflict:
			return http.StatusConflict
		case CodeValidation, CodeBadRequest:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeTooManyRequests:
			return http.StatusTooManyRequests
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
