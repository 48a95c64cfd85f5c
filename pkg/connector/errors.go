package connector

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is returned by ParseOperation before any session is
// acquired or any database call is made.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// ErrEmptySort is returned when a sort expression parses to something other
// than a non-empty document.
var ErrEmptySort = errors.New("sort must be a non-empty JSON object")

// ParseError reports malformed Extended-JSON input (query, pipeline or sort).
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse query parameters: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IdentifierError reports a value targeted at an identifier field that is
// neither absent nor valid 24-hex. Unlike date coercion, this is a hard
// failure: silently storing a malformed identifier as a plain string would
// break matching for every later update.
type IdentifierError struct {
	Field string
	Value interface{}
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid ObjectId for field %q: %v", e.Field, e.Value)
}

// DatabaseError wraps any failure surfaced by an underlying verb call.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
