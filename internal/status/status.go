package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation: invalid input")
	ErrForbidden         = errors.New("authorization: operation not permitted")
	ErrNotFound          = errors.New("record: not found")
	ErrInvalidState      = errors.New("state: operation not valid for current status")
	ErrEventFull         = errors.New("registration: event is full")
	ErrAlreadyRegistered = errors.New("registration: already registered for this event")
	ErrStorage           = errors.New("storage: record store failure")
	ErrUnauthorized      = errors.New("webhook: invalid shared secret")
	ErrBadRequest        = errors.New("webhook: malformed payload")
	ErrInternal          = errors.New("internal: operation could not be completed")
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when no field was rejected, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Storage wraps a record store failure with the operation that produced it.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
