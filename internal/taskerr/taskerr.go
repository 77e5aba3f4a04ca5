// Package taskerr defines the error taxonomy shared by the task store,
// persistence layers and the CLI. Every concrete error matches one of the
// sentinels below through errors.Is.
package taskerr

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("task not found")
	ErrPersistence  = errors.New("persistence failed")
	ErrImportFormat = errors.New("invalid import format")
)

// ValidationError reports rejected user input. No state was mutated.
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

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid creates a ValidationError for the given field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a mutation or lookup against an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("task %q not found", e.ID) }

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound creates a NotFoundError.
func NotFound(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// PersistenceError wraps a storage or network failure. It never rolls back
// the local mutation that triggered it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a PersistenceError. It returns nil for a nil err.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// ImportFormatError reports a malformed import file. The import is rejected whole.
type ImportFormatError struct {
	Err error
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("invalid import file: %v", e.Err)
}

func (e *ImportFormatError) Unwrap() error { return e.Err }

// Is matches ErrImportFormat.
func (e *ImportFormatError) Is(target error) bool { return target == ErrImportFormat }

// ExitCode maps an error to a process exit code: 0 for nil, 1 for user-facing
// errors, 2 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrImportFormat):
		return 1
	default:
		return 2
	}
}
