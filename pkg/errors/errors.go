// Package errors provides custom error types for the servermap system.
// The deduplication core itself degrades instead of failing; these types
// cover the boundaries around it: registry crawling, snapshot storage,
// graph loading, and search.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that a registry's rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrRegistryUnavailable indicates that a registry is temporarily unavailable
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNoSnapshot indicates that no snapshot exists for a registry
	ErrNoSnapshot = errors.New("no snapshot available")

	// ErrStaleData indicates that master data is older than its inputs
	ErrStaleData = errors.New("master data stale")
)

// NotFoundError represents an error when a resource is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// APIError represents an error from a registry API.
type APIError struct {
	Registry   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Registry, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Registry, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrRegistryUnavailable
	}
	return false
}

// NewAPIError creates a new APIError.
func NewAPIError(registry string, statusCode int, message string) *APIError {
	return &APIError{
		Registry:   registry,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ParseError represents an error when parsing data formats.
type ParseError struct {
	Format  string // "json", "yaml", "xml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations.
type IOError struct {
	Operation string // "read", "write", "create", "delete"
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error during resource operations.
type ResourceError struct {
	Operation string // "create", "update", "delete", "fetch", "load"
	Resource  string // "snapshot", "server", "category", "relationship"
	ID        string
	Err       error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// MergeError represents an error while merging catalog data.
type MergeError struct {
	Source string
	Target string
	Err    error
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	return fmt.Sprintf("merge error between %s and %s: %v", e.Source, e.Target, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsRegistryUnavailable checks if an error indicates registry unavailability.
func IsRegistryUnavailable(err error) bool {
	return errors.Is(err, ErrRegistryUnavailable)
}
