package errors

import (
	"fmt"
)

// GateError is the structured error type for droidgate.
// It provides rich context for error handling, logging, and user presentation.
// A GateError with fatal severity is a build-blocking verdict: its Message
// describes the problem and its Instructions field carries the remediation
// steps as a separate value, never folded into the message text.
type GateError struct {
	// Code is the unique error code (e.g., "ERR_401_NDK_BELOW_MINIMUM").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Environment, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Instructions are the remediation steps for the user.
	Instructions string
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GateError.
func (e *GateError) Is(target error) bool {
	if t, ok := target.(*GateError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GateError) WithDetail(key, value string) *GateError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithInstructions sets the remediation instructions for the user.
// Returns the error for method chaining.
func (e *GateError) WithInstructions(instructions string) *GateError {
	e.Instructions = instructions
	return e
}

// New creates a new GateError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *GateError {
	return &GateError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a GateError from an existing error.
// The error's message becomes the GateError message.
func Wrap(code string, err error) *GateError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// BuildBlocking creates a fatal gate verdict with remediation instructions.
// This is the error shape the external build driver stops on.
func BuildBlocking(code, message, instructions string) *GateError {
	e := New(code, message, nil)
	e.Severity = SeverityFatal
	e.Instructions = instructions
	return e
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GateError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// EnvError creates a host-environment error.
func EnvError(message string, cause error) *GateError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *GateError {
	return New(ErrCodeInvalidAPILevel, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GateError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error is a build-blocking verdict.
// Fatal errors must abort the surrounding build.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := err.(*GateError); ok {
		return ge.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a GateError.
// Returns empty string if not a GateError.
func GetCode(err error) string {
	if ge, ok := err.(*GateError); ok {
		return ge.Code
	}
	return ""
}

// GetInstructions extracts the remediation instructions from a GateError.
// Returns empty string if not a GateError or no instructions were set.
func GetInstructions(err error) string {
	if ge, ok := err.(*GateError); ok {
		return ge.Instructions
	}
	return ""
}

// GetCategory extracts the category from a GateError.
// Returns empty string if not a GateError.
func GetCategory(err error) Category {
	if ge, ok := err.(*GateError); ok {
		return ge.Category
	}
	return ""
}
