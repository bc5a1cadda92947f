package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrForbidden          = errors.New("permission denied")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrSelfFollow         = errors.New("cannot subscribe to yourself")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries messages per offending input field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, format string, args ...interface{}) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + strings.Join(e.Fields[k], "; ")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Err returns e as an error, or nil when nothing was added.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// fieldError is shorthand for a ValidationError with one message.
func fieldError(field, format string, args ...interface{}) error {
	v := &ValidationError{}
	v.Add(field, format, args...)
	return v
}
