package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a pull request, commit or ref that does not exist
// or is not accessible with the current credentials.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// TransientError wraps a network or server-side failure. The workflow never
// retries it; redelivery of the event re-runs the whole flow.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient service error: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a new TransientError.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{
		Op:  op,
		Err: err,
	}
}

// ConflictError is returned when a branch moved between the read of its tip
// and the ref update.
type ConflictError struct {
	Branch      string
	ExpectedSHA string
	ActualSHA   string // empty when the host did not report it
}

func (e *ConflictError) Error() string {
	if e.ActualSHA == "" {
		return fmt.Sprintf("branch %s is no longer at %s", e.Branch, e.ExpectedSHA)
	}
	return fmt.Sprintf("branch %s moved from %s to %s", e.Branch, e.ExpectedSHA, e.ActualSHA)
}

// NewConflictError creates a new ConflictError.
func NewConflictError(branch, expected, actual string) *ConflictError {
	return &ConflictError{
		Branch:      branch,
		ExpectedSHA: expected,
		ActualSHA:   actual,
	}
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsTransient checks if an error is or wraps a TransientError.
func IsTransient(err error) bool {
	var transientErr *TransientError
	return errors.As(err, &transientErr)
}

// IsConflict checks if an error is or wraps a ConflictError.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}
