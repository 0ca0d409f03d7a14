// Package parsererror defines the error taxonomy shared by ingestion and
// review: validation, parse, schema, transform and store failures.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownBank is returned when a filename names no supported bank.
	ErrUnknownBank = errors.New("unknown bank type")

	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleReview is returned when a review decision was made against an
	// outdated version of a movement, or the movement is no longer pending.
	ErrStaleReview = errors.New("stale review: movement changed since it was listed")
)

// ValidationError is a file-level rejection before any parsing happens.
type ValidationError struct {
	File   string
	Code   Code
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.File, e.Reason)
}

// ParseError reports a single value that could not be interpreted.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("failed to parse '%s': %v", e.Value, e.Err)
	}
	return fmt.Sprintf("failed to parse %s='%s': %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError lists the required columns absent from a file's header row.
type SchemaError struct {
	Bank    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required %s columns: %s", e.Bank, strings.Join(e.Missing, ", "))
}

// RowError explains why a single source row was dropped during transform.
// Row is the 1-based data row index (the header is not counted).
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// NewRowError builds a RowError from an underlying error.
func NewRowError(row int, err error) RowError {
	return RowError{Row: row, Err: err.Error()}
}

// TransformError is raised when an adapter yields no usable movement.
type TransformError struct {
	Bank      string
	RowErrors []RowError
}

func (e *TransformError) Error() string {
	if len(e.RowErrors) == 0 {
		return fmt.Sprintf("%s adapter produced no movements", e.Bank)
	}
	return fmt.Sprintf("%s adapter produced no movements (%d rows rejected)", e.Bank, len(e.RowErrors))
}

// StoreError wraps a failure returned by the data store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// CodeOf maps an error to the code exposed to clients. Unknown errors map to
// PROCESSING_ERROR.
func CodeOf(err error) Code {
	var validation *ValidationError
	var schema *SchemaError
	var transform *TransformError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Code
	case errors.Is(err, ErrUnknownBank):
		return CodeUnknownBankType
	case errors.As(err, &schema):
		return CodeMissingColumns
	case errors.As(err, &transform):
		return CodeTransformError
	default:
		return CodeProcessingError
	}
}
