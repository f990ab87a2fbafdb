package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across layers. Handlers map these onto HTTP
// status codes; storage and services wrap them with context.
var (
	// ErrNotFound covers both missing records and records owned by a
	// different user. Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a business-rule violation, such as contributing
	// to a goal that is no longer active.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized signals a missing, invalid, or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a single invalid field in a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated field of a request so clients
// can correct them all at once instead of one round-trip per field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a violation for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns the error if any violation was recorded, nil otherwise.
// Returning a typed nil pointer as error would always be non-nil.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
