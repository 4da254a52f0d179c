package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the engine, the service boundary and storage.
var (
	// ErrValidation is returned when a required identifier or input is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced project does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoDiagnostics is returned by autofix when there is nothing to fix.
	ErrNoDiagnostics = errors.New("no diagnostics to fix")

	// ErrPersistence is returned when the storage collaborator fails to read or write.
	ErrPersistence = errors.New("persistence failure")

	// ErrConflict indicates the stored version moved underneath a save.
	// It is always wrapped in a PersistenceError.
	ErrConflict = errors.New("version conflict")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err, or returns nil when err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) true for any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
