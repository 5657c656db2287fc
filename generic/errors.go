/*
errors.go - Centralized error types for the generic package

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - Caller-correctable input problems (bad month,
     inverted period, negative rate, non-positive amount)
  2. Lookup errors - Referenced record does not exist
  3. Store errors - Database-level failures (wrapped by the stores)

  Data-integrity gaps (a template pointing at a deleted entry) are NOT
  errors: the resolver drops them silently.

USAGE:
    if errors.Is(err, generic.ErrInvalidPeriod) {
        var pe *generic.PeriodError
        if errors.As(err, &pe) {
            fmt.Println("period", pe.Index)
        }
    }

SEE ALSO:
  - period.go: Period.Validate
  - longterm/aggregate.go: Wraps period failures with their index
  - api/handlers.go: Maps errors to HTTP status codes
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
	// ErrInvalidMonth is returned when a month string is not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrInvalidPeriod is returned when a period is missing a bound or ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrNegativeReturnRate is returned when the savings return rate is below zero.
	ErrNegativeReturnRate = errors.New("savings return rate must not be negative")

	// ErrInvalidAmount is returned when an amount is not positive where it must be.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidKind is returned for an unknown entry kind.
	ErrInvalidKind = errors.New("invalid entry kind")

	// ErrValidation is the umbrella for field-level validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateTemplateID is returned when a period lists the same template twice.
	ErrDuplicateTemplateID = errors.New("duplicate template id")

	// ErrNoPeriods is returned when a plan update carries no periods.
	ErrNoPeriods = errors.New("at least one period is required")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PeriodError identifies the offending period by its 1-based position.
type PeriodError struct {
	Index int
	Err   error
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("period %d: %v", e.Index, e.Err)
}

func (e *PeriodError) Unwrap() error { return e.Err }

// ValidationError names the field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MissingError lists ids that could not be found.
type MissingError struct {
	What string
	IDs  []int64
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.What, e.IDs)
}

func (e *MissingError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrNegativeReturnRate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateTemplateID) ||
		errors.Is(err, ErrNoPeriods)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
