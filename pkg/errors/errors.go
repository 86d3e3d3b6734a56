// Package errors provides custom error types for the motorsync engine.
// These errors enable programmatic error checking and keep the failure
// taxonomy explicit: per-source fetch failures, parse failures, per-record
// persistence failures, and run-level orchestration failures are distinct
// and handled differently by the reconciler.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the motorsync engine.
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that a feed source failed this run
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// FetchError represents a network or protocol failure for one source
// adapter. It is recorded against that source's descriptor and never aborts
// the run.
type FetchError struct {
	Source  string
	URL     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("fetch from %s (%s) failed: %s", e.Source, e.URL, e.Message)
	}
	return fmt.Sprintf("fetch from %s failed: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewFetchError creates a new FetchError
func NewFetchError(source, url string, err error) *FetchError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &FetchError{Source: source, URL: url, Message: message, Err: err}
}

// ParseError represents a failure to parse a feed payload.
type ParseError struct {
	Source  string
	Format  string // "xml", "pricelist", "html"
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parse error for source %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(source, format, message string, err error) *ParseError {
	return &ParseError{Source: source, Format: format, Message: message, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PersistenceError represents a failed write to the catalog or review
// queue. It is fatal to that single record's update, not to the run.
type PersistenceError struct {
	Operation string // "insert", "update", "upsert", "reset"
	Resource  string // "motor", "review_entry", "sync_run", "source_status"
	ID        string
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence wraps an error as a PersistenceError
func WrapPersistence(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// RunError represents an unexpected failure outside the per-record loop.
// The run must still transition to failed with its partial counters.
type RunError struct {
	RunID   string
	Stage   string // "fetch", "reset", "apply", "finalize"
	Message string
	Err     error
}

// Error implements the error interface
func (e *RunError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("sync run %s failed during %s: %s", e.RunID, e.Stage, e.Message)
	}
	return fmt.Sprintf("sync run failed during %s: %s", e.Stage, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError
func NewRunError(runID, stage string, err error) *RunError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RunError{RunID: runID, Stage: stage, Message: message, Err: err}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s", e.Operation, e.Duration)
	}
	return fmt.Sprintf("operation %s timed out", e.Operation)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSourceUnavailable checks if an error indicates a failed source fetch
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
