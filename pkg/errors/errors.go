package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrFileNotFound       = New("FILE_NOT_FOUND", http.StatusNotFound, "file has not been uploaded yet")
	ErrUnauthenticated    = New("UNAUTHENTICATED", http.StatusUnauthorized, "authentication required")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusForbidden, "insufficient permissions")
	ErrAccessDenied       = New("ACCESS_DENIED", http.StatusForbidden, "you do not have access to this resource")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusUnprocessableEntity, "validation failed")
	ErrRateLimited        = New("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "too many requests")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUpload             = New("UPLOAD_ERROR", http.StatusInternalServerError, "file upload failed")

	ErrDuplicateSlug     = New("DUPLICATE_SLUG", http.StatusConflict, "slug already in use")
	ErrDuplicateYear     = New("DUPLICATE_YEAR", http.StatusConflict, "year number already exists for this speciality")
	ErrDuplicateSemester = New("DUPLICATE_SEMESTER", http.StatusConflict, "semester number already exists for this year")
	ErrDuplicateGroup    = New("DUPLICATE_GROUP", http.StatusConflict, "group name already exists for this speciality and year")
	ErrHasStudents       = New("HAS_STUDENTS", http.StatusConflict, "resource has assigned students")
	ErrHasPlanning       = New("HAS_PLANNING", http.StatusConflict, "semester has an attached planning")

	ErrCacheMiss = errors.New("cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation converts a validator error into a VALIDATION_ERROR carrying
// per-field details. Non-validator errors produce a detail-less error.
func Validation(err error, message string) *Error {
	out := &Error{
		Code:    ErrValidation.Code,
		Status:  ErrValidation.Status,
		Message: message,
		Err:     err,
	}
	if out.Message == "" {
		out.Message = ErrValidation.Message
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out.Details = make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			out.Details[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
	}
	return out
}

// WithDetails returns a copy of the error carrying field-level details.
func WithDetails(err *Error, details map[string]string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}
