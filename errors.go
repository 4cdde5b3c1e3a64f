package presage

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failures the engine can raise on its own.
// Use errors.Is() to check for these errors.
var (
	// ErrHandlerNotFound indicates no command handler is registered for a command name.
	ErrHandlerNotFound = errors.New("presage: command handler not found")

	// ErrCommandDowncast indicates a boxed command did not hold the type a handler expected.
	ErrCommandDowncast = errors.New("presage: command downcast failed")

	// ErrSerializationFailed indicates an event payload could not be encoded.
	ErrSerializationFailed = errors.New("presage: serialization failed")

	// ErrDeserializationFailed indicates a serialized event could not be decoded.
	ErrDeserializationFailed = errors.New("presage: deserialization failed")

	// ErrNilCommand indicates a nil command was submitted or emitted.
	ErrNilCommand = errors.New("presage: nil command")

	// ErrNilEvent indicates a nil event was emitted.
	ErrNilEvent = errors.New("presage: nil event")

	// ErrHandlerPanicked indicates a command handler panicked during execution.
	ErrHandlerPanicked = errors.New("presage: handler panicked")

	// ErrValidationFailed indicates command validation failed.
	ErrValidationFailed = errors.New("presage: validation failed")
)

// Serialization operations reported by SerializationError.
const (
	OperationSerialize   = "serialize"
	OperationDeserialize = "deserialize"
)

// MissingCommandHandlerError is returned when a command has no registered handler.
type MissingCommandHandlerError struct {
	CommandName string
}

// Error returns the error message.
func (e *MissingCommandHandlerError) Error() string {
	return fmt.Sprintf("presage: missing command handler for command %q", e.CommandName)
}

// Is reports whether this error matches the target error.
func (e *MissingCommandHandlerError) Is(target error) bool {
	return target == ErrHandlerNotFound
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *MissingCommandHandlerError) Unwrap() error {
	return ErrHandlerNotFound
}

// NewMissingCommandHandlerError creates a new MissingCommandHandlerError.
func NewMissingCommandHandlerError(commandName string) *MissingCommandHandlerError {
	return &MissingCommandHandlerError{CommandName: commandName}
}

// CommandDowncastError is returned when a boxed command cannot be unboxed to the requested type.
// It always points at a registration bug: a handler registered under the wrong command name.
type CommandDowncastError struct {
	// CommandName is the name the boxed command was dispatched under.
	CommandName string

	// Expected is the requested Go type.
	Expected string

	// Actual is the Go type held by the box.
	Actual string
}

// Error returns the error message.
func (e *CommandDowncastError) Error() string {
	return fmt.Sprintf("presage: could not downcast command %q to type %s (holds %s)",
		e.CommandName, e.Expected, e.Actual)
}

// Is reports whether this error matches the target error.
func (e *CommandDowncastError) Is(target error) bool {
	return target == ErrCommandDowncast
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *CommandDowncastError) Unwrap() error {
	return ErrCommandDowncast
}

// NewCommandDowncastError creates a new CommandDowncastError.
func NewCommandDowncastError(commandName, expected, actual string) *CommandDowncastError {
	return &CommandDowncastError{
		CommandName: commandName,
		Expected:    expected,
		Actual:      actual,
	}
}

// SerializationError provides detailed information about an encoding or decoding failure.
type SerializationError struct {
	EventName string
	Operation string // "serialize" or "deserialize"
	Codec     string
	Cause     error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	if e.Codec == "" {
		return fmt.Sprintf("presage: failed to %s event %q: %v", e.Operation, e.EventName, e.Cause)
	}
	return fmt.Sprintf("presage: failed to %s event %q with %s codec: %v",
		e.Operation, e.EventName, e.Codec, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *SerializationError) Is(target error) bool {
	if e.Operation == OperationDeserialize {
		return target == ErrDeserializationFailed
	}
	return target == ErrSerializationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a SerializationError for the serialize operation.
func NewSerializationError(eventName, codec string, cause error) *SerializationError {
	return &SerializationError{
		EventName: eventName,
		Operation: OperationSerialize,
		Codec:     codec,
		Cause:     cause,
	}
}

// NewDeserializationError creates a SerializationError for the deserialize operation.
func NewDeserializationError(eventName, codec string, cause error) *SerializationError {
	return &SerializationError{
		EventName: eventName,
		Operation: OperationDeserialize,
		Codec:     codec,
		Cause:     cause,
	}
}

// PanicError provides detailed information about a handler panic.
type PanicError struct {
	CommandName string
	Value       interface{}
	Stack       string
}

// Error returns the error message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("presage: handler panicked while processing %q: %v", e.CommandName, e.Value)
}

// Is reports whether this error matches the target error.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanicked
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *PanicError) Unwrap() error {
	return ErrHandlerPanicked
}

// NewPanicError creates a new PanicError.
func NewPanicError(commandName string, value interface{}, stack string) *PanicError {
	return &PanicError{
		CommandName: commandName,
		Value:       value,
		Stack:       stack,
	}
}

// ValidationError represents a command validation failure.
type ValidationError struct {
	// CommandName is the name of the command that failed validation.
	CommandName string

	// Field is the field that failed validation (optional).
	Field string

	// Message describes the validation failure.
	Message string

	// Cause is the underlying error (optional).
	Cause error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("presage: validation failed for command %q field %q: %s",
			e.CommandName, e.Field, e.Message)
	}
	return fmt.Sprintf("presage: validation failed for command %q: %s", e.CommandName, e.Message)
}

// Is reports whether this error matches the target error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(commandName, field, message string) *ValidationError {
	return &ValidationError{
		CommandName: commandName,
		Field:       field,
		Message:     message,
	}
}

// NewValidationErrorWithCause creates a new ValidationError with an underlying cause.
func NewValidationErrorWithCause(commandName, field, message string, cause error) *ValidationError {
	return &ValidationError{
		CommandName: commandName,
		Field:       field,
		Message:     message,
		Cause:       cause,
	}
}
