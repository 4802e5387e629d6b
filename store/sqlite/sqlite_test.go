package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// WORKBOOK
// =============================================================================

func TestStore_LoadBeforeSave(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadWorkbook(context.Background())
	assert.ErrorIs(t, err, payroll.ErrWorkbookNotFound)
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	// GIVEN: the sample workbook with a custom title and a bonus
	store := newTestStore(t)
	ctx := context.Background()

	wb := payroll.StandardDefaults().SampleWorkbook()
	wb.Title = "Czerwiec"
	require.NoError(t, wb.SetBonus(1, "Ola", payroll.BonusConfig{
		Enabled:     true,
		Description: "inventory",
		Amount:      payroll.Rates(150, 0, 0).A,
	}))

	// WHEN: saving and loading
	_, err := store.SaveWorkbook(ctx, wb, "test")
	require.NoError(t, err)
	loaded, err := store.LoadWorkbook(ctx)
	require.NoError(t, err)

	// THEN: the same workbook comes back and computes the same pay
	assert.Equal(t, "Czerwiec", loaded.Title)
	assert.Equal(t, wb.Days, loaded.Days)
	assert.Equal(t, wb.People(), loaded.People())
	assert.NoError(t, loaded.CheckConsistency())

	engine := payroll.DefaultEngine()
	for i := range wb.Weeks {
		want := engine.ComputeWeekTotals(&wb.Weeks[i])
		got := engine.ComputeWeekTotals(&loaded.Weeks[i])
		assert.True(t, want.Payments.Total.Equal(got.Payments.Total), "week %d", i+1)
	}
	assert.True(t, loaded.Weeks[1].Bonuses["Ola"].Enabled)
}

func TestStore_KeysHoldTheLatestPieces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wb := payroll.StandardDefaults().NewWorkbook()
	wb.Title = "First"
	_, err := store.SaveWorkbook(ctx, wb, "")
	require.NoError(t, err)
	wb.Title = "Second"
	_, err = store.SaveWorkbook(ctx, wb, "")
	require.NoError(t, err)

	title, ok, err := store.Get(ctx, payroll.KeyTitle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Second", title)

	days, ok, err := store.Get(ctx, payroll.KeyDays)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `["Mon","Tue","Wed","Thu","Fri","Sat"]`, days)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// REVISIONS
// =============================================================================

func TestStore_RevisionsAreAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wb := payroll.StandardDefaults().SampleWorkbook()
	first, err := store.SaveWorkbook(ctx, wb, "seed")
	require.NoError(t, err)

	require.NoError(t, wb.RemovePerson("Ola"))
	second, err := store.SaveWorkbook(ctx, wb, "remove Ola")
	require.NoError(t, err)

	revs, err := store.Revisions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, second.ID, revs[0].ID)
	assert.Equal(t, "remove Ola", revs[0].Reason)
	assert.Equal(t, first.ID, revs[1].ID)
	assert.Equal(t, 5, revs[1].Weeks)

	limited, err := store.Revisions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// The first revision still has Ola.
	old, err := store.LoadRevision(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, old.Has("Ola"))

	latest, err := store.LoadWorkbook(ctx)
	require.NoError(t, err)
	assert.False(t, latest.Has("Ola"))
}

func TestStore_EmptyReasonIsStoredAsNull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveWorkbook(ctx, payroll.StandardDefaults().NewWorkbook(), "")
	require.NoError(t, err)

	revs, err := store.Revisions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Empty(t, revs[0].Reason)
	assert.False(t, revs[0].SavedAt.IsZero())
}

func TestStore_LoadRevisionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadRevision(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrRevisionNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shiftpay.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	_, err = store.SaveWorkbook(ctx, payroll.StandardDefaults().SampleWorkbook(), "seed")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	wb, err := reopened.LoadWorkbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, []payroll.PersonID{"Leader", "Kasia", "Ola", "Grzesiek"}, wb.People())

	revs, err := reopened.Revisions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}
