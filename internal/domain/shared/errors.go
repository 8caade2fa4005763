package shared

import "errors"

// Error kinds surfaced to callers. The code is carried verbatim so that
// presentation layers can map it to a message.
const (
	CodeInvalidArgument        = "INVALID_ARGUMENT"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeTerminalState          = "TERMINAL_STATE_VIOLATION"
	CodeInventoryExhausted     = "INVENTORY_EXHAUSTED"
	CodeAlreadyCompleted       = "ALREADY_COMPLETED"
	CodeNotFound               = "NOT_FOUND"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
)

// FieldError describes a single rejected field of an untrusted draft
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind, so that
// errors.Is(err, ErrNotFound) matches every NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an INVALID_ARGUMENT error carrying field details
func NewValidationError(message string, details []FieldError) *DomainError {
	return &DomainError{
		Code:    CodeInvalidArgument,
		Message: message,
		Details: details,
	}
}

// CodeOf returns the domain error code of err, or "" when err is not a DomainError
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrInvalidArgument        = NewDomainError(CodeInvalidArgument, "Invalid input provided")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrTerminalState          = NewDomainError(CodeTerminalState, "Entity is in a terminal state")
	ErrInventoryExhausted     = NewDomainError(CodeInventoryExhausted, "No availability left")
	ErrAlreadyCompleted       = NewDomainError(CodeAlreadyCompleted, "Already completed")
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)
