package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for bot operations.
type ErrorCode string

const (
	// ErrCodeInterpretFailure indicates the text could not be converted into a notification.
	// It is user-visible and recoverable via Repeat.
	ErrCodeInterpretFailure ErrorCode = "INTERPRET_FAILURE"
	// ErrCodeInterpreterUnavailable indicates the interpreter could not be reached.
	ErrCodeInterpreterUnavailable ErrorCode = "INTERPRETER_UNAVAILABLE"
	// ErrCodeStoreUnavailable indicates a transient infrastructure failure of the record store.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeInvalidAction indicates a malformed action payload.
	ErrCodeInvalidAction ErrorCode = "INVALID_ACTION"
	// ErrCodeDeliveryFailed indicates a message could not be delivered to a chat.
	ErrCodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
	// ErrCodeInvalidArgument indicates invalid configuration or input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// BotError represents a structured error for bot operations.
type BotError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *BotError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *BotError) WithContext(key string, value any) *BotError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *BotError) GetCode() ErrorCode {
	return e.Code
}

// InterpretFailure creates an interpret failure error.
func InterpretFailure(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeInterpretFailure, Message: msg, Cause: cause}
}

// InterpreterUnavailable creates an interpreter unavailable error.
func InterpreterUnavailable(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeInterpreterUnavailable, Message: msg, Cause: cause}
}

// StoreUnavailable creates a store unavailable error.
func StoreUnavailable(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeStoreUnavailable, Message: msg, Cause: cause}
}

// InvalidAction creates an invalid action error.
func InvalidAction(msg string) *BotError {
	return &BotError{Code: ErrCodeInvalidAction, Message: msg}
}

// DeliveryFailed creates a delivery failed error.
func DeliveryFailed(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeDeliveryFailed, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *BotError {
	return &BotError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *BotError {
	return &BotError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a BotError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr.Code
	}
	return defaultCode
}

// IsRetryable reports whether the failure is transient and the caller should retry
// the same operation on its next cycle.
func IsRetryable(err error) bool {
	switch GetCodeFromError(err, "") {
	case ErrCodeStoreUnavailable, ErrCodeInterpreterUnavailable, ErrCodeDeliveryFailed:
		return true
	default:
		return false
	}
}
