// Package common defines the error taxonomy shared by the viewer's server and
// client layers. Callers should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrorNotFound marks an absent session, organization, device, note or object.
	ErrorNotFound = errors.New("not found")

	// ErrorValidation marks malformed input rejected before any storage access.
	ErrorValidation = errors.New("validation error")

	// ErrorTransport marks a failure talking to the object store or the
	// transcription provider.
	ErrorTransport = errors.New("transport error")

	ErrorInternal = errors.New("internal error")
)

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is allows errors.Is(err, ErrorValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransportError wraps an underlying store or provider failure together with
// the operation that produced it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrorTransport).
func (e *TransportError) Is(target error) bool {
	return target == ErrorTransport
}

// NewTransportError wraps err as a TransportError. A nil err yields nil.
func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}
