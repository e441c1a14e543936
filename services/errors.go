package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Code is the stable machine-readable identifier exposed to clients; Message is
// the human-readable text.
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Errors match on type, and on code when the target has one.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// Wrap returns a copy of the error carrying err as its cause
func (e *DomainError) Wrap(err error) *DomainError {
	c := e.clone()
	c.Err = err
	return c
}

// WithMessage returns a copy of the error with a different message
func (e *DomainError) WithMessage(message string) *DomainError {
	c := e.clone()
	c.Message = message
	return c
}

// WithDetail returns a copy of the error with an added detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

func (e *DomainError) clone() *DomainError {
	details := make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	return &DomainError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, code, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Identity and session errors
	ErrMissingIdentityToken = NewDomainError(ErrorTypeValidation, "missing_identity_token", "Google ID token is missing.", nil)
	ErrInvalidIdentityToken = NewDomainError(ErrorTypeUnauthorized, "invalid_identity_token", "Invalid Google ID token.", nil)
	ErrTokenMissing         = NewDomainError(ErrorTypeUnauthorized, "token_missing", "Authorization token is missing or invalid.", nil)
	ErrTokenExpired         = NewDomainError(ErrorTypeUnauthorized, "token_expired", "Token has expired.", nil)
	ErrTokenInvalid         = NewDomainError(ErrorTypeUnauthorized, "token_invalid", "Token is invalid.", nil)
	ErrUnauthorized         = NewDomainError(ErrorTypeUnauthorized, "unauthorized", "User not found or token invalid.", nil)

	// Permission errors
	ErrForbidden          = NewDomainError(ErrorTypeForbidden, "forbidden", "Permission denied. Insufficient role.", nil)
	ErrReadOnlyTaskUpdate = NewDomainError(ErrorTypeForbidden, "read_only_task_update", "Read Only users can only update task status.", nil)

	// Not found errors
	ErrUserNotFound      = NewDomainError(ErrorTypeNotFound, "user_not_found", "User not found.", nil)
	ErrRoleNotFound      = NewDomainError(ErrorTypeNotFound, "role_not_found", "Role not found.", nil)
	ErrProjectNotFound   = NewDomainError(ErrorTypeNotFound, "project_not_found", "Project not found.", nil)
	ErrTaskNotFound      = NewDomainError(ErrorTypeNotFound, "task_not_found", "Task not found.", nil)
	ErrReferenceNotFound = NewDomainError(ErrorTypeNotFound, "reference_not_found", "Referenced record not found.", nil)

	// Validation errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "validation_error", "invalid input", nil)

	// Conflict errors
	ErrIdentityConflict  = NewDomainError(ErrorTypeConflict, "identity_conflict", "Email is already linked to a different Google account.", nil)
	ErrDuplicateUsername = NewDomainError(ErrorTypeConflict, "duplicate_username", "Username already exists.", nil)
	ErrDuplicateEmail    = NewDomainError(ErrorTypeConflict, "duplicate_email", "Email already exists.", nil)
	ErrDuplicateRoleName = NewDomainError(ErrorTypeConflict, "duplicate_role", "Role name already exists.", nil)
	ErrConflict          = NewDomainError(ErrorTypeConflict, "conflict", "Resource already exists.", nil)

	// Rate limit errors
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate_limited", "Too many requests. Please try again later.", nil)

	// Internal errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal_error", "An internal server error occurred.", nil)
	ErrAuthNotConfigured = NewDomainError(ErrorTypeInternal, "server_misconfigured", "Server configuration error.", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorCode returns the code of a domain error, or empty string if not a domain error
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return ErrInternal.Wrap(fmt.Errorf("%s: %w", message, err))
}

// NewValidationError creates a validation error with a client-facing message
func NewValidationError(message string) *DomainError {
	return ErrInvalidInput.WithMessage(message)
}
