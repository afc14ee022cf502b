/*
errors.go - Centralized error types for the voucher engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Findings (findings.go) cover everything recoverable; the errors here are
  the fatal cases that abort a run.

ERROR CATEGORIES:
  1. Source data errors - a required feed is missing, empty, or malformed
  2. Pipeline errors    - a stage invoked outside its contract

USAGE:
  if errors.Is(err, benefit.ErrMissingActiveSource) { ... }

  var srcErr *benefit.SourceDataError
  if errors.As(err, &srcErr) {
      log.Printf("stage %s failed on %s", srcErr.Stage, srcErr.Source)
  }
*/
package benefit

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingActiveSource is returned when the primary active-employees
	// feed is absent or empty. The run cannot proceed without it.
	ErrMissingActiveSource = errors.New("active employee source missing or empty")

	// ErrValidationFailed is returned by the coordinator when the validator
	// verdict blocks generation. The ValidationReport carries the detail.
	ErrValidationFailed = errors.New("validation failed")

	// ErrEmptyRateTable is returned when no union rate mapping was supplied.
	ErrEmptyRateTable = errors.New("union rate table is empty")

	// ErrRunNotFound is returned by run stores for unknown run IDs.
	ErrRunNotFound = errors.New("run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SourceDataError is the fatal taxonomy entry: a required source feed could
// not be used. It aborts the run and surfaces the stage name and cause.
type SourceDataError struct {
	Stage  string
	Source string
	Cause  error
}

func (e *SourceDataError) Error() string {
	return fmt.Sprintf("%s: source %q unusable: %v", e.Stage, e.Source, e.Cause)
}

func (e *SourceDataError) Unwrap() error { return e.Cause }

// StageError wraps a stage failure with the stage name so the coordinator's
// caller knows where the pipeline stopped.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatalSource reports whether the error is a fatal source-data problem.
func IsFatalSource(err error) bool {
	var srcErr *SourceDataError
	return errors.As(err, &srcErr) || errors.Is(err, ErrMissingActiveSource) || errors.Is(err, ErrEmptyRateTable)
}
