package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so dynamically
// built errors still match the sentinels below with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrValidation         = NewDomainError(ErrCodeValidation, "invalid request")
	ErrInvalidStatus      = NewDomainError(ErrCodeInvalidStatus, "invalid status")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidTransition, "status transition not allowed")
	ErrNotFound           = NewDomainError(ErrCodeNotFound, "not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeNotFound, "order not found")
	ErrStationNotFound    = NewDomainError(ErrCodeNotFound, "station not found")
	ErrRestaurantNotFound = NewDomainError(ErrCodeNotFound, "restaurant not found")
	ErrProductNotFound    = NewDomainError(ErrCodeNotFound, "product not found")
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "authentication required")
	ErrBadCredentials     = NewDomainError(ErrCodeUnauthorised, "invalid credentials")
	ErrConflict           = NewDomainError(ErrCodeConflict, "resource already exists")
	ErrStationInUse       = NewDomainError(ErrCodeConflict, "station is used by products")
)
