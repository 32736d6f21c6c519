// Package errors provides common error types used across the stageflow library.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrStageFailed indicates that a pipeline stage rejected or could not
	// transform its input
	ErrStageFailed = errors.New("stage failed")

	// ErrNotFound indicates that no pipeline is registered under the
	// requested identifier
	ErrNotFound = errors.New("pipeline not found")

	// ErrDecodeFailed indicates that an adapter could not interpret its
	// input in the expected format
	ErrDecodeFailed = errors.New("decode failed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StageError reports a failure local to a single pipeline stage. It is
// recoverable: the owning pipeline absorbs it, records the failure in its
// statistics, and degrades to the pre-execution input.
type StageError struct {
	Stage  string
	Reason string
}

// NewStageError creates a StageError for the named stage.
func NewStageError(stage, reason string) *StageError {
	return &StageError{Stage: stage, Reason: reason}
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("stage failure: %s", e.Reason)
	}
	return fmt.Sprintf("stage %q failure: %s", e.Stage, e.Reason)
}

// Unwrap returns ErrStageFailed so callers can match with errors.Is.
func (e *StageError) Unwrap() error {
	return ErrStageFailed
}

// NotFoundError reports a dispatch to an identifier with no registered
// pipeline. Unlike stage and decode failures it is surfaced to the caller:
// the caller explicitly named a nonexistent target and has no other way to
// detect the typo.
type NotFoundError struct {
	ID string
}

// NewNotFoundError creates a NotFoundError for the given identifier.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no pipeline registered under %q", e.ID)
}

// Unwrap returns ErrNotFound so callers can match with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// DecodeError reports that an adapter's format-specific interpretation of an
// otherwise valid value failed. Adapters absorb it and return a neutral
// result rather than propagate.
type DecodeError struct {
	Adapter string
	Reason  string
	Cause   error
}

// NewDecodeError creates a DecodeError for the named adapter.
func NewDecodeError(adapter, reason string) *DecodeError {
	return &DecodeError{Adapter: adapter, Reason: reason}
}

// WithCause attaches the underlying error and returns the same instance for
// chaining.
func (e *DecodeError) WithCause(cause error) *DecodeError {
	e.Cause = cause
	return e
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: decode failed: %s: %v", e.Adapter, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: decode failed: %s", e.Adapter, e.Reason)
}

// Unwrap returns ErrDecodeFailed so callers can match with errors.Is.
func (e *DecodeError) Unwrap() error {
	return ErrDecodeFailed
}

// ValidationError reports an invalid configuration or argument value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Module: module, Field: field, Value: value, Reason: reason}
}

// WithHint adds a remediation hint and returns the same instance for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can match with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError reports a failed operation with its module and cause.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError wrapping the given cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{Module: module, Operation: operation, Cause: cause}
}

// WithContext adds operational context and returns the same instance for
// chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// IsStageFailure returns true if the error is a stage failure
func IsStageFailure(err error) bool {
	return errors.Is(err, ErrStageFailed)
}

// IsNotFound returns true if the error indicates an unregistered pipeline id
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecodeFailure returns true if the error is an adapter decode failure
func IsDecodeFailure(err error) bool {
	return errors.Is(err, ErrDecodeFailed)
}

// IsValidationError returns true if the error is a validation error
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}
