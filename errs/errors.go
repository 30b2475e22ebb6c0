// Package errs defines the interpreter's error taxonomy.
//
// Everything below the request boundary is recoverable: stages wrap these
// errors into warnings and carry on with a degraded result. Only an
// UpstreamError or a SchemaError with no viable fallback ends a request.
package errs

import (
	"errors"
	"fmt"
)

// ============================================================================
// ERROR TAXONOMY
// ============================================================================

// ErrSkipped marks a condition or stage that was ignored because its
// configuration was incomplete (null value, unsupported operation, ...).
var ErrSkipped = errors.New("skipped")

// SchemaError reports instruction text that did not parse into the expected
// shape, or a field that is missing or invalid for the declared chart type.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "invalid instruction: " + e.Reason
	}
	return fmt.Sprintf("invalid instruction field %q: %s", e.Field, e.Reason)
}

// MissingColumnError reports a referenced column that is absent from the
// dataset at the point it is consumed.
type MissingColumnError struct {
	Field  string // instruction field that referenced the column, may be empty
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("column %q not found in dataset", e.Column)
	}
	return fmt.Sprintf("%s: column %q not found in dataset", e.Field, e.Column)
}

// CoercionError reports a value that could not be converted to the type an
// operation requires.
type CoercionError struct {
	Column string
	Value  any
	Target string // "numeric", "date", "integer"
}

func (e *CoercionError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("cannot convert %v to %s", e.Value, e.Target)
	}
	return fmt.Sprintf("column %q: cannot convert %v to %s", e.Column, e.Value, e.Target)
}

// EmptyResultError reports a stage that would have produced zero rows.
type EmptyResultError struct {
	Stage string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s would produce an empty dataset", e.Stage)
}

// UpstreamError wraps a failed or timed-out call to an external collaborator
// (instruction generation, remote data fetch).
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError. A nil err stays nil.
func Upstream(source string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Source: source, Err: err}
}

// IsMissingColumn reports whether err (or anything it wraps) is a MissingColumnError.
func IsMissingColumn(err error) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc)
}

// IsSchema reports whether err (or anything it wraps) is a SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
