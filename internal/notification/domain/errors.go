package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by stores for missing settings or tokens.
// Callers treat it as a normal branch, not a failure.
var ErrNotFound = errors.New("not found")

// ValidationError carries one message per rejected field
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// TransportError is a failed push send
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push send failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError is a failed store read or write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err with the store operation name; nil stays nil
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
