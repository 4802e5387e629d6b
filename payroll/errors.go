/*
errors.go - Error types for the workbook and its stores

PURPOSE:
  The payment engine itself never returns errors: bad input degrades to
  "no contribution". Errors only come from editing operations on the
  workbook (roster changes, shift edits) and from persistence.

ERROR CATEGORIES:
  1. Input errors - malformed times, unknown days or rate keys
  2. Roster errors - missing/duplicate people, leader misuse
  3. Store errors - nothing saved yet, unknown revision

USAGE:
  if errors.Is(err, payroll.ErrPersonNotFound) {
      // 404
  }
*/
package payroll

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedTime is returned when a time string is not H:MM / HH:MM
	// with hour in [0,23] and minute in [0,59].
	ErrMalformedTime = errors.New("malformed time")

	// ErrInvertedShift is reported by validation when a shift ends at or
	// before its start. Such shifts contribute zero hours.
	ErrInvertedShift = errors.New("shift ends at or before its start")

	ErrWeekOutOfRange = errors.New("week index out of range")
	ErrPersonNotFound = errors.New("person not found")
	ErrPersonExists   = errors.New("person already exists")
	ErrInvalidName    = errors.New("invalid person name")
	ErrUnknownDay     = errors.New("unknown day")
	ErrUnknownRateKey = errors.New("unknown rate key")
	ErrUnknownKind    = errors.New("unknown shift kind")

	// ErrSaturdayNotInDays is reported when the Saturday-rated day is not one
	// of the workbook's days, so no hours can earn the Saturday rate.
	ErrSaturdayNotInDays = errors.New("saturday day not in workbook days")

	// ErrLeaderHasNoRates is returned when editing rates or bonus of a leader.
	ErrLeaderHasNoRates = errors.New("leaders have no rates or bonus")

	// ErrWorkbookNotFound is returned by stores when nothing was saved yet.
	ErrWorkbookNotFound = errors.New("workbook not found")

	ErrRevisionNotFound = errors.New("revision not found")

	// ErrRosterInconsistent is wrapped by RosterInconsistencyError.
	ErrRosterInconsistent = errors.New("roster inconsistent")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TimeParseError reports which value failed to parse.
type TimeParseError struct {
	Value  string
	Reason string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Value, e.Reason)
}

func (e *TimeParseError) Unwrap() error {
	return ErrMalformedTime
}

// ShiftIssue describes a validation finding for one cell of the schedule.
type ShiftIssue struct {
	Week   int
	Person PersonID
	Day    Day
	Err    error
}

func (i ShiftIssue) String() string {
	return fmt.Sprintf("week %d, %s, %s: %v", i.Week+1, i.Person, i.Day, i.Err)
}

// RosterInconsistencyError lists every violation of the roster invariant.
type RosterInconsistencyError struct {
	Problems []string
}

func (e *RosterInconsistencyError) Error() string {
	return "roster inconsistent: " + strings.Join(e.Problems, "; ")
}

func (e *RosterInconsistencyError) Unwrap() error {
	return ErrRosterInconsistent
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedTime) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrUnknownDay) ||
		errors.Is(err, ErrUnknownRateKey) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrLeaderHasNoRates) ||
		errors.Is(err, ErrRosterInconsistent)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrWeekOutOfRange) ||
		errors.Is(err, ErrWorkbookNotFound) ||
		errors.Is(err, ErrRevisionNotFound)
}

// IsConflict returns true if the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPersonExists)
}
