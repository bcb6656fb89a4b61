package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories and services when an entity does
// not exist. HTTP handlers map it to 404.
var ErrNotFound = errors.New("resource not found")

// ValidationError indicates malformed or inconsistent input. State is left
// unchanged and the error is surfaced directly to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validation builds a ValidationError without a field reference.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}

// ValidationField builds a ValidationError tied to a named input field.
func ValidationField(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// AccessError indicates the actor lacks the privilege level required for the
// operation. No partial mutation occurs.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string { return e.Msg }

// Access builds an AccessError.
func Access(msg string) error {
	return &AccessError{Msg: msg}
}

// ConfigurationError indicates required global configuration is missing or
// invalid. Fatal for the operation; retry after fixing configuration.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// Configuration builds a ConfigurationError.
func Configuration(msg string) error {
	return &ConfigurationError{Msg: msg}
}

// ExternalFailure indicates an external collaborator (job runner, storage
// service) reported an error. Never retried automatically.
type ExternalFailure struct {
	Msg string
	Err error
}

func (e *ExternalFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ExternalFailure) Unwrap() error { return e.Err }

// External wraps an error from an external collaborator.
func External(msg string, err error) error {
	return &ExternalFailure{Msg: msg, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAccess reports whether err is (or wraps) an AccessError.
func IsAccess(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
