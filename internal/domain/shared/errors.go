package shared

import (
	"errors"
	"strings"
)

// Kind classifies a DomainError. The set is closed; the HTTP layer maps each
// kind to exactly one status code.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindUnprocessable
)

// String returns the kind's error code
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnprocessable:
		return "UNPROCESSABLE_ENTITY"
	default:
		return "INTERNAL_ERROR"
	}
}

// FieldError describes a single failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Kind    Kind         `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(kind Kind, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    kind.String(),
		Message: message,
	}
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *DomainError {
	return NewDomainError(KindUnauthorized, message)
}

// Forbidden reports an authenticated caller refused by role or ownership.
func Forbidden(message string) *DomainError {
	return NewDomainError(KindForbidden, message)
}

// NotFound reports an absent entity.
func NotFound(message string) *DomainError {
	return NewDomainError(KindNotFound, message)
}

// Unprocessable reports a record that failed validation.
func Unprocessable(message string, details ...FieldError) *DomainError {
	e := NewDomainError(KindUnprocessable, message)
	e.Details = details
	return e
}

// Internal wraps an unclassified failure.
func Internal(message string, cause error) *DomainError {
	e := NewDomainError(KindInternal, message)
	e.cause = cause
	return e
}

// KindOf returns the kind of err, or KindInternal when err is not a DomainError.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind Kind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

// joinFieldErrors renders details as "field: message; field: message"
func joinFieldErrors(details []FieldError) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return strings.Join(parts, "; ")
}
