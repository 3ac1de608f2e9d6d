package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Fields  map[string][]string // field level detail for validation failures
	Err     error               // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies compare equal to the predefined errors.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Fields:  domainErr.Fields,
		Err:     err,
	}
}

// NewValidationError builds a ValidationFailed error for a single field.
// The first message of the first field doubles as the top level message.
func NewValidationError(field, message string) *DomainError {
	return NewValidationErrors(map[string][]string{field: {message}})
}

// NewValidationErrors builds a ValidationFailed error from a field error bag.
func NewValidationErrors(fields map[string][]string) *DomainError {
	return &DomainError{
		Code:    CodeValidationFailed,
		Message: summarize(fields),
		Fields:  fields,
	}
}

// Error codes
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// Predefined domain errors
var (
	ErrValidationFailed     = NewDomainError(CodeValidationFailed, "The given data was invalid.")
	ErrAuthenticationFailed = NewDomainError(CodeAuthenticationFailed, "These credentials do not match our records.")
	ErrUnauthenticated      = NewDomainError(CodeUnauthenticated, "Unauthenticated.")
	ErrUserNotFound         = NewDomainError(CodeUserNotFound, "User not found.")

	ErrInternal           = NewDomainError(CodeInternal, "Internal server error.")
	ErrServiceUnavailable = NewDomainError(CodeServiceUnavailable, "Service unavailable.")
)

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case CodeValidationFailed, CodeAuthenticationFailed:
		return http.StatusUnprocessableEntity
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUserNotFound:
		return http.StatusNotFound
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage returns the client facing message. Internal causes stay out of it.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return ErrInternal.Message
}

// GetErrorFields returns the validation error bag, if any
func GetErrorFields(err error) map[string][]string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

// summarize mirrors the usual "first message (and N more errors)" summary.
func summarize(fields map[string][]string) string {
	total := 0
	first := ""
	for _, key := range sortedKeys(fields) {
		for _, msg := range fields[key] {
			if first == "" {
				first = msg
			}
			total++
		}
	}

	switch {
	case total == 0:
		return ErrValidationFailed.Message
	case total == 1:
		return first
	case total == 2:
		return fmt.Sprintf("%s (and 1 more error)", first)
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, total-1)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
