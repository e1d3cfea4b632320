// Package errors provides centralized error definitions and error handling
// utilities for the coordination engine. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and
// classification helpers.
//
// Two categories of errors are provided:
//
// Domain-specific errors represent errors from specific subsystems:
//   - StoreError: durable store read/write failures (usually transient)
//   - CoordinationError: errors raised by the focus/session/timer core
//
// Semantic errors represent common conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNotAdmin) { ... }
//
//	var storeErr *errors.StoreError
//	if errors.As(err, &storeErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience, so callers can
// import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Store-related sentinel errors
var (
	// ErrUserNotFound indicates that a user could not be found in the store.
	ErrUserNotFound = New("user not found")
	// ErrInstanceNotFound indicates that an instance could not be found.
	ErrInstanceNotFound = New("instance not found")
	// ErrTaskNotFound indicates that a task could not be found in any
	// loaded instance.
	ErrTaskNotFound = New("task not found")
	// ErrWriteFailed indicates that a durable write failed after retries.
	ErrWriteFailed = New("durable write failed")
	// ErrUnknownField indicates a field-level write named a field the
	// store does not recognize.
	ErrUnknownField = New("unknown field")
)

// Coordination-related sentinel errors
var (
	// ErrNotAdmin indicates a privileged operation was invoked by a
	// non-admin user.
	ErrNotAdmin = New("caller is not an admin")
	// ErrStaleReference indicates a focus or action-set entry points at a
	// task or instance that no longer exists. Stale references are pruned
	// on load and merge, never treated as a crash.
	ErrStaleReference = New("stale reference")
	// ErrAlreadyStarted indicates a lifecycle component was started twice.
	ErrAlreadyStarted = New("already started")
	// ErrNoSession indicates an operation requires a started session.
	ErrNoSession = New("no active session")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// CoreError is the base interface for all engine errors. It extends the
// standard error interface with classification methods.
type CoreError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the
	// operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// StoreError represents a durable store failure. Store errors are
// retryable by default: the engine's periodic loops are self-healing, so
// a failed write is usually superseded by the next one.
//
// Example:
//
//	err := errors.NewStoreError("write user field", cause).WithKey("users/u1")
type StoreError struct {
	baseError
	Key   string
	Field string
}

// NewStoreError creates a new StoreError.
func NewStoreError(message string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: false,
		},
	}
}

// WithKey adds the store key to the error context.
func (e *StoreError) WithKey(key string) *StoreError {
	e.Key = key
	return e
}

// WithField adds the written field name to the error context.
func (e *StoreError) WithField(field string) *StoreError {
	e.Field = field
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StoreError) WithRetryable(r bool) *StoreError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "store error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("store error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CoordinationError represents errors raised by the focus, action-set,
// presence, or timer components.
//
// Example:
//
//	err := errors.NewCoordinationError("clear focus", errors.ErrNotAdmin).WithUserID("u2")
type CoordinationError struct {
	baseError
	UserID string
	TaskID string
}

// NewCoordinationError creates a new CoordinationError.
func NewCoordinationError(message string, cause error) *CoordinationError {
	return &CoordinationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithUserID adds a user ID to the error context.
func (e *CoordinationError) WithUserID(id string) *CoordinationError {
	e.UserID = id
	return e
}

// WithTaskID adds a task ID to the error context.
func (e *CoordinationError) WithTaskID(id string) *CoordinationError {
	e.TaskID = id
	return e
}

// WithSeverity sets the error severity.
func (e *CoordinationError) WithSeverity(s Severity) *CoordinationError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *CoordinationError) Error() string {
	var parts []string
	if e.UserID != "" {
		parts = append(parts, fmt.Sprintf("user=%s", e.UserID))
	}
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}

	prefix := "coordination error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("coordination error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *CoordinationError) Is(target error) bool {
	if _, ok := target.(*CoordinationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("user", "u1")
//	fmt.Println(err) // "user 'u1' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Transient write failures report true; the
// write dispatcher uses this to decide whether to back off and retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.IsRetryable()
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to
// end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.IsUserFacing()
	}

	var notFound *NotFoundError
	var validation *ValidationError
	if As(err, &notFound) || As(err, &validation) {
		return true
	}

	return false
}

// GetSeverity returns the severity level of the error. Returns
// SeverityError for errors that don't implement CoreError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var coreErr CoreError
	if As(err, &coreErr) {
		return coreErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
