package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid or insufficient input
	ErrCatExecution  ErrorCategory = "execution"  // Collaborator failure
	ErrCatState      ErrorCategory = "state"      // Engine lifecycle state
	ErrCatConsensus  ErrorCategory = "consensus"  // Consensus could not be formed
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNoValidResponses is returned when every agent response was rejected.
// The caller decides whether to re-query agents.
func ErrNoValidResponses(total int, minConfidence float64) *DomainError {
	return &DomainError{
		Category:  ErrCatConsensus,
		Code:      CodeNoValidResponses,
		Message:   fmt.Sprintf("no valid responses: all %d agent responses were rejected", total),
		Retryable: false,
		Details: map[string]interface{}{
			"responses":          total,
			"minimum_confidence": minConfidence,
		},
	}
}

// ErrNotReady is returned by a fail-fast engine called before initialization completed.
func ErrNotReady() *DomainError {
	return ErrState(CodeNotReady, "synthesis engine is not initialized")
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeResultNotFound,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// HasCode checks if err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code == code
	}
	return false
}

// Predefined error codes
const (
	CodeEmptyQuery       = "EMPTY_QUERY"
	CodeQueryTooLong     = "QUERY_TOO_LONG"
	CodeNoValidResponses = "NO_VALID_RESPONSES"
	CodeNotReady         = "NOT_READY"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeInvalidHierarchy = "INVALID_HIERARCHY"
	CodeInvalidRules     = "INVALID_RULES"
	CodeResultNotFound   = "RESULT_NOT_FOUND"
	CodeEmbeddingFailed  = "EMBEDDING_FAILED"
	CodeInitFailed       = "INIT_FAILED"
	CodeCorruptResult    = "CORRUPT_RESULT"
	CodeInvalidResult    = "INVALID_RESULT"
)

// MaxQueryLength is the maximum accepted query length.
const MaxQueryLength = 100000
