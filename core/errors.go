package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrUnauthenticated is returned by every operation called without a Principal.
var ErrUnauthenticated = errors.New("you must be logged in")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldValidationError is a shortcut for a ValidationError on a single field.
func NewFieldValidationError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// PermissionError is returned when a Principal fails an authorization check.
type PermissionError struct {
	msg string
}

func NewPermissionError(msg string) error {
	return &PermissionError{msg: msg}
}

func (err PermissionError) Error() string {
	return err.msg
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ConflictError is returned on uniqueness violations, with a domain specific message.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string {
	return err.msg
}

// StoreError wraps a data store failure. Message is safe to show to callers, Err is not.
type StoreError struct {
	Message string
	Err     error
}

// NewStoreError wraps err as a store failure surfaced as "failed to <action>".
func NewStoreError(err error, action string) error {
	return &StoreError{Message: "failed to " + action, Err: err}
}

func (err StoreError) Error() string {
	if err.Err == nil {
		return err.Message
	}
	return fmt.Sprintf("%s: %v", err.Message, err.Err)
}

func (err StoreError) Cause() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// causes unwraps err until one of its causes satisfies match.
// StoreError is itself a causer, so stop there before reaching the store error.
func causes(err error, match func(error) bool) bool {
	for err != nil {
		if match(err) {
			return true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}

func IsShutdown(err error) bool {
	return causes(err, func(e error) bool { _, ok := e.(*shutdown); return ok })
}

func IsUnauthenticated(err error) bool {
	return causes(err, func(e error) bool { return e == ErrUnauthenticated })
}

func IsPermissionDenied(err error) bool {
	return causes(err, func(e error) bool { _, ok := e.(*PermissionError); return ok })
}

func IsNotFound(err error) bool {
	return causes(err, func(e error) bool { _, ok := e.(*NotFoundError); return ok })
}

func IsConflict(err error) bool {
	return causes(err, func(e error) bool { _, ok := e.(*ConflictError); return ok })
}

func IsValidation(err error) bool {
	return causes(err, func(e error) bool {
		switch e.(type) {
		case *ValidationError, validator.ValidationErrors:
			return true
		}
		return false
	})
}

func IsStoreFailure(err error) bool {
	return causes(err, func(e error) bool { _, ok := e.(*StoreError); return ok })
}

// WrapStoreError passes domain errors (not found, conflict, validation, permission) through
// and turns anything else into a StoreError for action.
func WrapStoreError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err), IsConflict(err), IsValidation(err), IsPermissionDenied(err), IsUnauthenticated(err), IsStoreFailure(err):
		return err
	}
	return NewStoreError(err, action)
}
