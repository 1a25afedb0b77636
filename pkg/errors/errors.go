// Package errors provides custom error types for the rostersync system.
// These errors enable programmatic error checking across the reconciliation
// engine and let the planner report remote conflicts as typed failures
// instead of generic HTTP errors.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the rostersync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPITokenRequired indicates that an API token is required but not provided
	ErrAPITokenRequired = errors.New("API token required")

	// ErrRateLimited indicates that the remote API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrRemoteUnavailable indicates that the remote API is temporarily unavailable
	ErrRemoteUnavailable = errors.New("remote API unavailable")

	// ErrDuplicateExternalID indicates the remote rejected a write because an
	// external-id value is already attached to another record
	ErrDuplicateExternalID = errors.New("duplicate external id value")

	// ErrInvalidExternalIDKey indicates the remote rejected an external-id key
	ErrInvalidExternalIDKey = errors.New("invalid external id key")

	// ErrMissingIdentifier indicates a source row carries no stable identifier
	ErrMissingIdentifier = errors.New("missing stable identifier")

	// ErrProtectedRecord indicates an attempt to mutate a warehouse or
	// otherwise unmanaged record
	ErrProtectedRecord = errors.New("record is protected")
)

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

// APIError represents an error returned by the Samsara API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("samsara API error (status %d) on %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("samsara API error on %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrRemoteUnavailable
	}
	if e.StatusCode == 404 {
		return target == ErrNotFound
	}
	return false
}

// ConflictError represents a remote write rejected because of an external-id
// conflict. Kind distinguishes a duplicate value from an invalid key so the
// planner can record a specific reason code.
type ConflictError struct {
	Kind  ConflictKind
	Key   string
	Value string
	Err   error
}

// ConflictKind identifies the flavor of external-id conflict.
type ConflictKind string

const (
	// ConflictDuplicateValue means the external-id value already exists on
	// another remote record.
	ConflictDuplicateValue ConflictKind = "duplicate_external_id"
	// ConflictInvalidKey means the remote rejected the external-id key.
	ConflictInvalidKey ConflictKind = "invalid_external_id_key"
)

// Error implements the error interface
func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictInvalidKey:
		return fmt.Sprintf("invalid external id key %q", e.Key)
	default:
		return fmt.Sprintf("duplicate external id %s=%s", e.Key, e.Value)
	}
}

// Unwrap implements errors.Unwrap
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	switch e.Kind {
	case ConflictInvalidKey:
		return target == ErrInvalidExternalIDKey
	default:
		return target == ErrDuplicateExternalID
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IOError represents a filesystem error
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a failure to parse an input artifact
type ParseError struct {
	Format  string
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %s: %s", e.Format, e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, Source: source, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Endpoint: endpoint, StatusCode: statusCode, Message: err.Error(), Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsDuplicateExternalID checks if an error is a duplicate external-id conflict
func IsDuplicateExternalID(err error) bool {
	return errors.Is(err, ErrDuplicateExternalID)
}

// IsInvalidExternalIDKey checks if an error is an invalid external-id key conflict
func IsInvalidExternalIDKey(err error) bool {
	return errors.Is(err, ErrInvalidExternalIDKey)
}

// Is reports whether any error in err's tree matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
// It's an alias for the standard library errors.As.
var As = errors.As
