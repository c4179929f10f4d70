/*
errors.go - Centralized error types for the benefit engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stage code wraps these with dataset/column context.

ERROR CATEGORIES:
  1. Fatal input errors - required source or column missing (run aborts)
  2. Validation errors - malformed period, rejected assist statements
  3. Store errors - unknown run ids

Everything else (malformed dates, malformed money, unresolvable regions,
missing optional sources) is NOT an error: it is coerced to a default and
counted in the stage report.

USAGE:
  if errors.Is(err, generic.ErrMissingColumn) {
      // surface to the operator, the run was aborted
  }

SEE ALSO:
  - source/batches.go: Raises MissingColumnError
  - assist/statements.go: Raises StatementError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingSource is returned when the active roster is absent.
	ErrMissingSource = errors.New("required source missing")

	// ErrMissingColumn is returned when a required column is absent from a dataset.
	ErrMissingColumn = errors.New("required column missing")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrRunNotFound is returned when a run id is unknown to the store.
	ErrRunNotFound = errors.New("run not found")

	// ErrStatementRejected is returned for assist statements that fail validation.
	ErrStatementRejected = errors.New("statement rejected")

	// ErrUnsupportedFormat is returned for source files that are not xlsx/xls/csv.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingColumnError names the dataset and the column that could not be found.
type MissingColumnError struct {
	Dataset string
	Column  string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Dataset, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// StatementError explains why an assist statement was not applied.
type StatementError struct {
	Statement string
	Reason    string
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement rejected: %s (%s)", e.Reason, e.Statement)
}

func (e *StatementError) Unwrap() error {
	return ErrStatementRejected
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true if the error must abort a run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissingSource) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsFatal(err) ||
		errors.Is(err, ErrStatementRejected) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
