// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	latest    *payroll.Workbook
	revisions []memoryRevision
	now       func() time.Time
}

type memoryRevision struct {
	meta     payroll.Revision
	workbook *payroll.Workbook
}

var _ payroll.Store = (*Memory)(nil)

// NewMemory returns an empty store; LoadWorkbook fails until the first save.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// LoadWorkbook returns a copy of the latest workbook.
func (m *Memory) LoadWorkbook(_ context.Context) (*payroll.Workbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return nil, payroll.ErrWorkbookNotFound
	}
	return m.latest.Clone(), nil
}

// SaveWorkbook stores a copy, so later edits by the caller don't leak in.
func (m *Memory) SaveWorkbook(_ context.Context, wb *payroll.Workbook, reason string) (payroll.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rev := payroll.Revision{
		ID:      payroll.RevisionID(uuid.NewString()),
		SavedAt: m.now().UTC(),
		Title:   wb.Title,
		Weeks:   len(wb.Weeks),
		Reason:  reason,
	}
	m.latest = wb.Clone()
	m.revisions = append(m.revisions, memoryRevision{meta: rev, workbook: wb.Clone()})
	return rev, nil
}

// Revisions returns newest first.
func (m *Memory) Revisions(_ context.Context, limit int) ([]payroll.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.Revision
	for i := len(m.revisions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.revisions[i].meta)
	}
	return out, nil
}

func (m *Memory) LoadRevision(_ context.Context, id payroll.RevisionID) (*payroll.Workbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.revisions {
		if r.meta.ID == id {
			return r.workbook.Clone(), nil
		}
	}
	return nil, payroll.ErrRevisionNotFound
}
