// Package errors provides the error definitions used across studiobuild.
// It defines the task orchestration errors, a validation error, sentinel
// values for errors.Is checks, and classification helpers used to attribute
// a failure when it is logged.
//
// # Error Types
//
// Orchestration errors describe what went wrong while resolving or running
// a task:
//   - UnregisteredTaskError: a sequence referenced a name with no action
//   - DuplicateTaskError: a name was registered twice
//   - TaskExecutionError: a registered action returned an error or panicked
//
// ValidationError describes invalid input such as an empty task name.
//
// # Usage
//
//	err := errors.NewUnregisteredTaskError("bower:dist")
//	if errors.Is(err, errors.ErrTaskNotFound) { ... }
//
//	var execErr *errors.TaskExecutionError
//	if errors.As(err, &execErr) {
//	    fmt.Println(execErr.Task)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
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
	// SeverityDebug is for errors that are useful for debugging but not critical.
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

// Task-related sentinel errors
var (
	// ErrTaskNotFound indicates that no action is registered under a task name.
	ErrTaskNotFound = New("task not registered")
	// ErrTaskExists indicates that a task name is already registered.
	ErrTaskExists = New("task already registered")
	// ErrTaskFailed indicates that a task action signalled failure.
	ErrTaskFailed = New("task failed")
	// ErrDependencyCycle indicates a composite task that reaches itself.
	ErrDependencyCycle = New("dependency cycle detected")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BuildError is the base interface for studiobuild errors.
type BuildError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity
}

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// -----------------------------------------------------------------------------
// Orchestration Errors
// -----------------------------------------------------------------------------

// UnregisteredTaskError is returned when a sequence references a task name
// that has no registered action.
//
// Example:
//
//	err := errors.NewUnregisteredTaskError("bower:dist").WithSequence("build")
//	fmt.Println(err) // "task 'bower:dist' is not registered (in build)"
type UnregisteredTaskError struct {
	baseError
	Task     string
	Sequence string
}

// NewUnregisteredTaskError creates a new UnregisteredTaskError.
func NewUnregisteredTaskError(task string) *UnregisteredTaskError {
	return &UnregisteredTaskError{
		baseError: baseError{
			message:  fmt.Sprintf("task '%s' is not registered", task),
			severity: SeverityError,
		},
		Task: task,
	}
}

// WithSequence records the composite task whose sequence held the reference.
func (e *UnregisteredTaskError) WithSequence(name string) *UnregisteredTaskError {
	e.Sequence = name
	return e
}

// Error returns the formatted error message.
func (e *UnregisteredTaskError) Error() string {
	if e.Sequence != "" {
		return fmt.Sprintf("%s (in %s)", e.message, e.Sequence)
	}
	return e.message
}

// Is matches any UnregisteredTaskError and ErrTaskNotFound.
func (e *UnregisteredTaskError) Is(target error) bool {
	if _, ok := target.(*UnregisteredTaskError); ok {
		return true
	}
	return target == ErrTaskNotFound
}

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	baseError
	Task string
}

// NewDuplicateTaskError creates a new DuplicateTaskError.
func NewDuplicateTaskError(task string) *DuplicateTaskError {
	return &DuplicateTaskError{
		baseError: baseError{
			message:  fmt.Sprintf("task '%s' is already registered", task),
			severity: SeverityCritical,
		},
		Task: task,
	}
}

// Is matches any DuplicateTaskError and ErrTaskExists.
func (e *DuplicateTaskError) Is(target error) bool {
	if _, ok := target.(*DuplicateTaskError); ok {
		return true
	}
	return target == ErrTaskExists
}

// TaskExecutionError wraps the failure signalled by a task action.
//
// Example:
//
//	err := errors.NewTaskExecutionError("ts:dist", cause).WithOutput(stderr)
//	fmt.Println(err) // "task 'ts:dist' failed: exit status 2\nsrc/app.ts(3,1): ..."
type TaskExecutionError struct {
	baseError
	Task     string
	Output   string // Captured output of an external tool, if any
	Panicked bool
}

// NewTaskExecutionError creates a new TaskExecutionError.
func NewTaskExecutionError(task string, cause error) *TaskExecutionError {
	return &TaskExecutionError{
		baseError: baseError{
			message:  fmt.Sprintf("task '%s' failed", task),
			cause:    cause,
			severity: SeverityError,
		},
		Task: task,
	}
}

// WithOutput attaches captured tool output to the error.
func (e *TaskExecutionError) WithOutput(output string) *TaskExecutionError {
	e.Output = strings.TrimSpace(output)
	return e
}

// WithPanic marks the error as produced by a recovered panic.
func (e *TaskExecutionError) WithPanic() *TaskExecutionError {
	e.Panicked = true
	e.severity = SeverityCritical
	return e
}

// Error returns the formatted error message.
func (e *TaskExecutionError) Error() string {
	msg := e.message
	if e.Panicked {
		msg += " (panic)"
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Output)
	}
	return msg
}

// Is matches any TaskExecutionError, ErrTaskFailed, and the wrapped cause.
func (e *TaskExecutionError) Is(target error) bool {
	if _, ok := target.(*TaskExecutionError); ok {
		return true
	}
	if target == ErrTaskFailed {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("task name cannot be empty")
//	err = err.WithField("name").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
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

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
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
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BuildError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var buildErr BuildError
	if As(err, &buildErr) {
		return buildErr.Severity()
	}

	return SeverityError
}

// TaskName returns the name of the task an error is attributed to, or ""
// when the error carries no task.
func TaskName(err error) string {
	var execErr *TaskExecutionError
	if As(err, &execErr) {
		return execErr.Task
	}
	var unregistered *UnregisteredTaskError
	if As(err, &unregistered) {
		return unregistered.Task
	}
	return ""
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
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
