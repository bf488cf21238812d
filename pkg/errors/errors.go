package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the post pipeline
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrGateway           = errors.New("gateway error")
	ErrPersistence       = errors.New("persistence error")
)

const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeInvalidTransition = "invalid_transition"
	CodeGateway           = "gateway_error"
	CodePersistence       = "persistence_error"
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports malformed or incomplete post data.
func Validation(format string, args ...any) error {
	return WrapWithCode(ErrValidation, CodeValidation, fmt.Sprintf(format, args...))
}

// NotFound reports an unknown post id.
func NotFound(id string) error {
	return WrapWithCode(ErrNotFound, CodeNotFound, fmt.Sprintf("post %q", id))
}

// InvalidTransition reports a disallowed status change.
func InvalidTransition(from, to string) error {
	return WrapWithCode(ErrInvalidTransition, CodeInvalidTransition, fmt.Sprintf("cannot move post from %s to %s", from, to))
}

// Persistence wraps a durable-storage failure.
func Persistence(err error, message string) error {
	if err == nil {
		return nil
	}
	return WrapWithCode(fmt.Errorf("%w: %w", ErrPersistence, err), CodePersistence, message)
}

// GatewayError captures a failed call to an external collaborator,
// either the content generation provider or the publish backend.
type GatewayError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	msg := e.Provider + ": "
	if e.Status != 0 {
		msg += fmt.Sprintf("status %d: ", e.Status)
	}
	msg += e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is makes every GatewayError match ErrGateway.
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	if IsGateway(err) {
		return CodeGateway
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
