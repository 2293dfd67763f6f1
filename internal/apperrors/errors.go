// Package apperrors defines the typed error taxonomy shared by the REST and
// MCP edges. Handlers match these with errors.As and map them to HTTP status
// codes; everything else is treated as an internal failure.
package apperrors

import (
	"fmt"
	"time"
)

// Error codes used in API envelopes.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeFormat       = "FORMAT_ERROR"
	CodeUnknownField = "UNKNOWN_FIELD"
	CodeInvalidSort  = "INVALID_SORT_FIELD"
	CodeDatabase     = "DB_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// FormatError indicates a value that could not be parsed into its expected
// shape, most commonly a datetime string.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unparseable value %q", e.Input)
	}
	return fmt.Sprintf("unparseable value %q: %s", e.Input, e.Reason)
}

// NewFormatError builds a FormatError for the given input.
func NewFormatError(input, reason string) *FormatError {
	return &FormatError{Input: input, Reason: reason}
}

// UnknownFieldError indicates a filter or update key that is neither a
// semantic field nor an allowlisted physical column.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// InvalidSortFieldError indicates a sort key outside the sortable allowlist.
type InvalidSortFieldError struct {
	Field string
}

func (e *InvalidSortFieldError) Error() string {
	return fmt.Sprintf("invalid sort field %q", e.Field)
}

// ValidationError indicates a semantically invalid request: bad enum label,
// negative window, empty bulk id list, and similar.
type ValidationError struct {
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with optional detail pairs.
func NewValidationError(message string, details map[string]any) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// NotFoundError indicates a missing row.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// DatabaseError wraps a driver-level failure with the operation that hit it.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error in %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// WrapDB wraps err as a DatabaseError unless it is nil.
func WrapDB(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DatabaseError{Op: op, Err: err}
}

// Response is the wire envelope for REST error payloads. Timestamp carries
// the canonical UTC format used everywhere else in the API.
type Response struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// NewResponse builds an error envelope stamped with the given time.
func NewResponse(code, message string, details map[string]any, ts time.Time) Response {
	return Response{
		ErrorCode: code,
		Message:   message,
		Details:   details,
		Timestamp: ts.UTC().Format("2006-01-02 15:04:05.000"),
	}
}
