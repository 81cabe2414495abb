package catalog

import (
	"errors"
	"fmt"
)

var (
	errEmptySource   = errors.New("catalog: source is required")
	errEmptyDocument = errors.New("catalog: document is empty")
)

// FetchError is returned when the catalog source cannot be retrieved.
type FetchError struct {
	Source string
	// StatusCode is set for HTTP sources that answered with a non-success status.
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog: fetch %s: status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("catalog: fetch %s: %v", e.Source, e.Err)
}

// Unwrap exposes the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is returned when the catalog document is malformed or does not match the schema.
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog: parse %s: %v", e.Source, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }
