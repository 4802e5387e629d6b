/*
store.go - Persistence interface for the workbook

PURPOSE:
  The workbook is stored as an opaque whole. A Store keeps the latest
  workbook under fixed keys and an append-only history of every save, so
  an earlier state can be restored without ever rewriting history.

KEYS:
  KeySchedule: JSON of the weeks array
  KeyTitle:    the workbook header
  KeyDays:     JSON of the ordered day keys

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: single-file SQLite database
  - payroll/store/memory.go: in-memory, for tests

EXAMPLE:
  wb, err := store.LoadWorkbook(ctx)
  if errors.Is(err, payroll.ErrWorkbookNotFound) {
      wb = payroll.StandardDefaults().SampleWorkbook()
  }
*/
package payroll

import (
	"context"
	"time"
)

const (
	KeySchedule = "scheduleData"
	KeyTitle    = "mainHeader"
	KeyDays     = "scheduleDays"
)

// RevisionID identifies one saved state of the workbook.
type RevisionID string

// Revision is an entry of the save history.
type Revision struct {
	ID      RevisionID
	SavedAt time.Time
	Title   string
	Weeks   int
	Reason  string
}

// Store persists the workbook.
type Store interface {
	// LoadWorkbook returns the latest workbook or ErrWorkbookNotFound.
	LoadWorkbook(ctx context.Context) (*Workbook, error)

	// SaveWorkbook replaces the latest workbook and appends a revision.
	SaveWorkbook(ctx context.Context, wb *Workbook, reason string) (Revision, error)

	// Revisions returns the most recent revisions, newest first.
	Revisions(ctx context.Context, limit int) ([]Revision, error)

	// LoadRevision returns the workbook as saved in revision id.
	LoadRevision(ctx context.Context, id RevisionID) (*Workbook, error)
}
