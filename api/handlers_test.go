/*
handlers_test.go - Tests for API handlers

Tests for:
- Week views, payments and totals
- Cell, rate and bonus edits with error mapping
- Roster operations across weeks
- Workbook import and revision restore
- Scenarios
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
	store   *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(mem, payroll.DefaultEngine(), payroll.StandardDefaults(), logger)
	return &testServer{handler: h, router: NewRouter(h, []string{"http://localhost:5173"}), store: mem}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func paymentOf(t *testing.T, week WeekDTO, person string) PaymentDTO {
	t.Helper()
	for _, p := range week.Payments {
		if p.Person == person {
			return p
		}
	}
	t.Fatalf("no payment for %s", person)
	return PaymentDTO{}
}

// =============================================================================
// WEEK VIEWS
// =============================================================================

func TestGetWeek_SeedsSampleOnFirstUse(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/weeks/1", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decode[WeekDTO](t, rec)
	assert.Equal(t, 1, week.Week)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, week.Days)
	require.Len(t, week.People, 4)
	assert.True(t, week.People[0].Leader)
	assert.Nil(t, week.People[0].Rates)
	assert.Len(t, week.Payments, 3)
	assert.Equal(t, 3, week.Totals.People)
	assert.Empty(t, week.Issues)
	assert.Equal(t, 9.75, week.People[3].Shifts["Mon"].Hours)

	// Reading never saves.
	_, err := s.store.LoadWorkbook(t.Context())
	assert.ErrorIs(t, err, payroll.ErrWorkbookNotFound)
}

func TestGetWeek_BadWeek(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/weeks/zero", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/weeks/0", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/weeks/6", nil).Code)
}

func TestGetPayment(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/weeks/2/payments/Kasia", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[PaymentDTO](t, rec)
	assert.Equal(t, "Kasia", p.Person)
	assert.Equal(t, 25.0, p.Rates.A)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/weeks/2/payments/Leader", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/weeks/2/payments/Nobody", nil).Code)
}

func TestTotalsEqualSumOfPayments(t *testing.T) {
	s := newTestServer(t)

	payments := decode[[]PaymentDTO](t, s.do(t, http.MethodGet, "/api/weeks/1/payments", nil))
	totals := decode[TotalsDTO](t, s.do(t, http.MethodGet, "/api/weeks/1/totals", nil))

	sum := 0.0
	for _, p := range payments {
		sum += p.Payments.Total
	}
	assert.InDelta(t, sum, totals.Payments.Total, 1e-9)
	assert.Equal(t, len(payments), totals.People)
}

// =============================================================================
// WEEK EDITS
// =============================================================================

func TestUpdateShift_RecomputesAndSaves(t *testing.T) {
	// GIVEN: Kasia alone on Monday in week 3
	s := newTestServer(t)
	for _, p := range []string{"Ola", "Grzesiek"} {
		rec := s.do(t, http.MethodPut, "/api/weeks/3/shifts/"+p+"/Mon", ShiftRequest{Kind: "day_off"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// WHEN: Kasia works 06:20-12:15
	rec := s.do(t, http.MethodPut, "/api/weeks/3/shifts/Kasia/Mon", ShiftRequest{Start: "6:20", End: "12:15"})

	// THEN: the whole Monday is solo
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decode[WeekDTO](t, rec)
	assert.Equal(t, 3, week.Week)
	assert.Equal(t, "day_off", week.People[2].Shifts["Mon"].Kind)

	// Sample Kasia minus her 260 solo minutes on Monday plus the full 355.
	kasia := paymentOf(t, week, "Kasia")
	assert.InDelta(t, float64(4*260+130+340-260+355)/60, kasia.Hours.Solo, 1e-9)
	assert.InDelta(t, float64(5*355+320)/60, kasia.Hours.Total, 1e-9)

	wb, err := s.store.LoadWorkbook(t.Context())
	require.NoError(t, err)
	assert.Equal(t, payroll.WorkingShift("6:20", "12:15"), wb.Weeks[2].Schedule["Kasia"]["Mon"])
	assert.Equal(t, payroll.DayOff(), wb.Weeks[2].Schedule["Grzesiek"]["Mon"])

	revs, _ := s.store.Revisions(t.Context(), 0)
	assert.Len(t, revs, 3)
}

func TestUpdateShift_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"malformed time", "/api/weeks/1/shifts/Kasia/Mon", ShiftRequest{Start: "6:2", End: "12:15"}, http.StatusBadRequest},
		{"signed time", "/api/weeks/1/shifts/Kasia/Mon", ShiftRequest{Start: "+6:20", End: "12:15"}, http.StatusBadRequest},
		{"unknown day", "/api/weeks/1/shifts/Kasia/Sun", ShiftRequest{Start: "6:20", End: "12:15"}, http.StatusBadRequest},
		{"unknown kind", "/api/weeks/1/shifts/Kasia/Mon", ShiftRequest{Kind: "sick"}, http.StatusBadRequest},
		{"unknown person", "/api/weeks/1/shifts/Nobody/Mon", ShiftRequest{Start: "6:20", End: "12:15"}, http.StatusNotFound},
		{"week out of range", "/api/weeks/9/shifts/Kasia/Mon", ShiftRequest{Start: "6:20", End: "12:15"}, http.StatusNotFound},
		{"bad json", "/api/weeks/1/shifts/Kasia/Mon", []byte("{"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}

	// Nothing was saved.
	revs, _ := s.store.Revisions(t.Context(), 0)
	assert.Empty(t, revs)
}

func TestUpdateShift_InvertedIsAcceptedAndReported(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/weeks/1/shifts/Ola/Sat", ShiftRequest{Start: "15:00", End: "9:00"})

	require.Equal(t, http.StatusOK, rec.Code)
	week := decode[WeekDTO](t, rec)
	require.Len(t, week.Issues, 1)
	assert.Equal(t, "Ola", week.Issues[0].Person)
	assert.Equal(t, "Sat", week.Issues[0].Day)

	issues := decode[[]IssueDTO](t, s.do(t, http.MethodGet, "/api/workbook/issues", nil))
	assert.Len(t, issues, 1)
}

func TestToggleDayOff(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/weeks/1/shifts/Kasia/Mon/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	week := decode[WeekDTO](t, rec)
	assert.Equal(t, "day_off", week.People[1].Shifts["Mon"].Kind)
	assert.Zero(t, week.People[1].Shifts["Mon"].Hours)

	rec = s.do(t, http.MethodPost, "/api/weeks/1/shifts/Kasia/Mon/toggle", nil)
	week = decode[WeekDTO](t, rec)
	assert.Equal(t, ShiftDTO{Kind: "working"}, week.People[1].Shifts["Mon"])
}

func TestUpdateRatesAndBonus(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/weeks/1/rates/Ola", []byte(`{"A": 30, "C": 2.5}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decode[WeekDTO](t, rec)
	ola := paymentOf(t, week, "Ola")
	assert.Equal(t, RatesDTO{A: 30, B: 7, C: 2.5}, ola.Rates)

	rec = s.do(t, http.MethodPut, "/api/weeks/1/bonuses/Ola", []byte(`{"enabled": true, "description": "inventory", "amount": 150}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week = decode[WeekDTO](t, rec)
	ola2 := paymentOf(t, week, "Ola")
	assert.Equal(t, 150.0, ola2.Payments.Bonus)
	assert.InDelta(t, ola.Payments.Total+150, ola2.Payments.Total, 1e-9)

	// Week 2 keeps its own copy.
	other := decode[PaymentDTO](t, s.do(t, http.MethodGet, "/api/weeks/2/payments/Ola", nil))
	assert.Equal(t, 25.0, other.Rates.A)
	assert.Zero(t, other.Payments.Bonus)

	// Leaders have no rates.
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/weeks/1/rates/Leader", []byte(`{"A": 1}`)).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/weeks/1/bonuses/Leader", []byte(`{"enabled": true}`)).Code)
}

func TestUpdateDateAndLabel(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/weeks/1/dates/Mon", LabelRequest{Label: "3 VI"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3 VI", decode[WeekDTO](t, rec).Dates["Mon"])

	rec = s.do(t, http.MethodPut, "/api/weeks/1/labels/B", LabelRequest{Label: "Solo"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Solo", decode[WeekDTO](t, rec).Labels["B"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/weeks/1/labels/Q", LabelRequest{Label: "x"}).Code)
}

// =============================================================================
// ROSTER
// =============================================================================

func TestRoster_AddRenameLeaderRemove(t *testing.T) {
	s := newTestServer(t)

	// Add
	rec := s.do(t, http.MethodPost, "/api/people", AddPersonRequest{Name: "Tomek"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Leader", "Kasia", "Ola", "Grzesiek", "Tomek"}, decode[WorkbookSummaryDTO](t, rec).People)

	// Duplicate
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/people", AddPersonRequest{Name: "Tomek"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/people", AddPersonRequest{Name: " "}).Code)

	// Rename
	rec = s.do(t, http.MethodPut, "/api/people/Tomek", RenamePersonRequest{Name: "Tomasz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[WorkbookSummaryDTO](t, rec).People, "Tomasz")

	// Leader: drops out of payments in every week
	rec = s.do(t, http.MethodPut, "/api/people/Tomasz/leader", LeaderRequest{Leader: true})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, wk := range []string{"1", "5"} {
		totals := decode[TotalsDTO](t, s.do(t, http.MethodGet, "/api/weeks/"+wk+"/totals", nil))
		assert.Equal(t, 3, totals.People)
	}

	// Remove
	rec = s.do(t, http.MethodDelete, "/api/people/Tomasz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode[WorkbookSummaryDTO](t, rec).People, "Tomasz")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/people/Tomasz", nil).Code)

	wb, err := s.store.LoadWorkbook(t.Context())
	require.NoError(t, err)
	assert.NoError(t, wb.CheckConsistency())
}

func TestAddPerson_AsLeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/people", AddPersonRequest{Name: "Szef", Leader: true})
	require.Equal(t, http.StatusCreated, rec.Code)

	week := decode[WeekDTO](t, s.do(t, http.MethodGet, "/api/weeks/1", nil))
	last := week.People[len(week.People)-1]
	assert.Equal(t, "Szef", last.Name)
	assert.True(t, last.Leader)
	assert.Equal(t, 3, week.Totals.People)
}

// =============================================================================
// WORKBOOK
// =============================================================================

func TestImportLegacy(t *testing.T) {
	s := newTestServer(t)
	data, err := os.ReadFile("../factory/testdata/legacy_default.json")
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/workbook/import?title=Czerwiec", data)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[WorkbookSummaryDTO](t, rec)
	assert.Equal(t, "Czerwiec", summary.Title)
	assert.Equal(t, 5, summary.Weeks)

	bad := s.do(t, http.MethodPost, "/api/workbook/import", []byte(`[{"schedule": {"A": {}}}, {"schedule": {"B": {}}}]`))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	resp := decode[ErrorResponse](t, bad)
	assert.NotNil(t, resp.Details)
}

func TestReplaceWorkbook_RoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/workbook", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wb payroll.Workbook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wb))
	wb.Title = "Replaced"
	wb.Weeks = wb.Weeks[:2]

	rec = s.do(t, http.MethodPut, "/api/workbook", wb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[WorkbookSummaryDTO](t, rec)
	assert.Equal(t, "Replaced", summary.Title)
	assert.Equal(t, 2, summary.Weeks)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/workbook", []byte("nope")).Code)
}

func TestIssues_SaturdayMissingFromDays(t *testing.T) {
	// GIVEN: a stored workbook without Saturday
	s := newTestServer(t)
	weekdays := payroll.Defaults{Days: payroll.DefaultDays[:5], Weeks: 2, Rates: payroll.Rates(25, 7, 2)}.SampleWorkbook()
	rec := s.do(t, http.MethodPut, "/api/workbook", weekdays)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN
	issues := decode[[]IssueDTO](t, s.do(t, http.MethodGet, "/api/workbook/issues", nil))

	// THEN: the workbook-level issue is listed once
	require.Len(t, issues, 1)
	assert.Zero(t, issues[0].Week)
	assert.Equal(t, "Sat", issues[0].Day)
	assert.Empty(t, issues[0].Person)
	assert.Contains(t, issues[0].Error, "saturday")

	week := decode[WeekDTO](t, s.do(t, http.MethodGet, "/api/weeks/1", nil))
	require.Len(t, week.Issues, 1)
	assert.Zero(t, week.Totals.Hours.Saturday)
}

func TestSetTitle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/title", TitleRequest{Title: "Lipiec"})
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[WorkbookSummaryDTO](t, s.do(t, http.MethodGet, "/api/workbook/summary", nil))
	assert.Equal(t, "Lipiec", summary.Title)
}

func TestRevisions_Restore(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPut, "/api/title", TitleRequest{Title: "One"})
	s.do(t, http.MethodPut, "/api/title", TitleRequest{Title: "Two"})

	revs := decode[[]RevisionDTO](t, s.do(t, http.MethodGet, "/api/revisions", nil))
	require.Len(t, revs, 2)
	assert.Equal(t, "Two", revs[0].Title)
	assert.Equal(t, "set title", revs[0].Reason)

	limited := decode[[]RevisionDTO](t, s.do(t, http.MethodGet, "/api/revisions?limit=1", nil))
	assert.Len(t, limited, 1)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/revisions?limit=-1", nil).Code)

	rec := s.do(t, http.MethodPost, "/api/revisions/"+revs[1].ID+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "One", decode[WorkbookSummaryDTO](t, rec).Title)

	// Restoring appends; history is never rewritten.
	after := decode[[]RevisionDTO](t, s.do(t, http.MethodGet, "/api/revisions", nil))
	assert.Len(t, after, 3)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/revisions/missing/restore", nil).Code)
}

func TestTimeOptions(t *testing.T) {
	s := newTestServer(t)

	opts := decode[[]string](t, s.do(t, http.MethodGet, "/api/time-options", nil))
	assert.Equal(t, "05:00", opts[0])
	assert.Equal(t, "22:30", opts[len(opts)-1])
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_LoadOverlap(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(scenarios))

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "overlap"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decode[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "overlap", current.ID)

	// Anna 08:00-16:00 with Bartek 10:00-14:00: four solo hours a day, six days.
	anna := decode[PaymentDTO](t, s.do(t, http.MethodGet, "/api/weeks/1/payments/Anna", nil))
	assert.Equal(t, 48.0, anna.Hours.Total)
	assert.Equal(t, 24.0, anna.Hours.Solo)
	assert.Equal(t, 8.0, anna.Hours.Saturday)
	bartek := decode[PaymentDTO](t, s.do(t, http.MethodGet, "/api/weeks/1/payments/Bartek", nil))
	assert.Zero(t, bartek.Hours.Solo)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}).Code)
}

func TestScenarios_Empty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "empty"})
	require.Equal(t, http.StatusOK, rec.Code)

	totals := decode[TotalsDTO](t, s.do(t, http.MethodGet, "/api/weeks/1/totals", nil))
	assert.Equal(t, 3, totals.People)
	assert.Zero(t, totals.Payments.Total)
}

func TestScenarios_BuildersSucceed(t *testing.T) {
	for _, sc := range scenarios {
		build, ok := scenarioBuilders[sc.ID]
		require.True(t, ok, sc.ID)

		wb, err := build(payroll.StandardDefaults())
		require.NoError(t, err, sc.ID)
		assert.NoError(t, wb.CheckConsistency(), sc.ID)
	}
}

// failingStore loads like the memory store but never saves.
type failingStore struct {
	*store.Memory
}

func (failingStore) SaveWorkbook(context.Context, *payroll.Workbook, string) (payroll.Revision, error) {
	return payroll.Revision{}, errors.New("disk full")
}

func TestScenarios_FailedSaveKeepsCurrentScenario(t *testing.T) {
	// GIVEN: a store whose saves fail
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(failingStore{store.NewMemory()}, payroll.DefaultEngine(), payroll.StandardDefaults(), logger)
	s := &testServer{handler: h, router: NewRouter(h, nil)}

	// WHEN: a scenario is loaded
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "overlap"})

	// THEN: the request fails and no scenario is marked current
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	current := s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null", strings.TrimSpace(current.Body.String()))
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)
}
