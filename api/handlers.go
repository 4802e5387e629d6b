/*
handlers.go - HTTP API handlers for the schedule and payroll workbook

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the payroll package.

ENDPOINTS:
  Workbook:
    GET    /api/workbook                       Full workbook (native JSON)
    PUT    /api/workbook                       Replace workbook (native or legacy JSON)
    POST   /api/workbook/import                Import a legacy weeks array
    GET    /api/workbook/issues                Malformed or inverted shifts, day set problems
    PUT    /api/title                          Rename the workbook

  Weeks (1-based):
    GET    /api/weeks/{week}                   Week view with payments and totals
    GET    /api/weeks/{week}/payments          Payments of every non-leader
    GET    /api/weeks/{week}/payments/{person} Payment of one person
    GET    /api/weeks/{week}/totals            Week totals
    PUT    /api/weeks/{week}/shifts/{person}/{day}         Replace a cell
    POST   /api/weeks/{week}/shifts/{person}/{day}/toggle  Toggle day off
    PUT    /api/weeks/{week}/rates/{person}    Update rates
    PUT    /api/weeks/{week}/bonuses/{person}  Update bonus
    PUT    /api/weeks/{week}/dates/{day}       Set a day's display date
    PUT    /api/weeks/{week}/labels/{key}      Set a rate tier label

  Roster (all weeks):
    POST   /api/people                         Add person
    PUT    /api/people/{person}                Rename person
    DELETE /api/people/{person}                Remove person
    PUT    /api/people/{person}/leader         Flag or unflag leader

  History:
    GET    /api/revisions                      Save history, newest first
    POST   /api/revisions/{id}/restore         Save an old revision again

REQUEST FLOW (edits):
  1. Load the workbook (seed the sample on first use)
  2. Apply the edit to the in-memory copy
  3. Check the roster invariant
  4. Save, which appends a revision
  5. Respond with the recomputed week

ERROR HANDLING:
  - 400: Malformed input, unknown day or rate key, leader rate edits
  - 404: Week, person or revision not found
  - 409: Duplicate person
  - 500: Storage errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo workbooks
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    payroll.Store
	Engine   *payroll.Engine
	Defaults payroll.Defaults
	Factory  *factory.WorkbookFactory
	Logger   *slog.Logger

	// Serializes load-modify-save cycles.
	mu sync.Mutex

	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store payroll.Store, engine *payroll.Engine, defaults payroll.Defaults, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    store,
		Engine:   engine,
		Defaults: defaults,
		Factory:  factory.NewWorkbookFactory(defaults),
		Logger:   logger,
	}
}

// load returns the stored workbook, or the sample workbook if nothing was
// saved yet.
func (h *Handler) load(ctx context.Context) (*payroll.Workbook, error) {
	wb, err := h.Store.LoadWorkbook(ctx)
	if errors.Is(err, payroll.ErrWorkbookNotFound) {
		return h.Defaults.SampleWorkbook(), nil
	}
	return wb, err
}

// engineFor computes over the workbook's own day list.
func (h *Handler) engineFor(wb *payroll.Workbook) *payroll.Engine {
	return payroll.NewEngine(wb.DayList(), h.Engine.Saturday)
}

// save checks the roster invariant and persists wb.
func (h *Handler) save(ctx context.Context, wb *payroll.Workbook, reason string) (payroll.Revision, error) {
	if err := wb.CheckConsistency(); err != nil {
		return payroll.Revision{}, err
	}
	rev, err := h.Store.SaveWorkbook(ctx, wb, reason)
	if err != nil {
		return payroll.Revision{}, err
	}
	h.Logger.InfoContext(ctx, "workbook saved",
		slog.String("revision", string(rev.ID)),
		slog.String("reason", reason),
		slog.Int("weeks", rev.Weeks))
	return rev, nil
}

// edit runs one load-modify-save cycle. It writes the error response itself
// and returns nil on failure.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, reason string, fn func(wb *payroll.Workbook) error) *payroll.Workbook {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	wb, err := h.load(ctx)
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return nil
	}
	if err := fn(wb); err != nil {
		writeDomainError(w, "edit rejected", err)
		return nil
	}
	if _, err := h.save(ctx, wb, reason); err != nil {
		writeDomainError(w, "failed to save workbook", err)
		return nil
	}
	return wb
}

// =============================================================================
// WORKBOOK ENDPOINTS
// =============================================================================

// GetWorkbook returns the workbook in the native format.
func (h *Handler) GetWorkbook(w http.ResponseWriter, r *http.Request) {
	wb, err := h.load(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return
	}
	writeJSON(w, http.StatusOK, wb)
}

// GetSummary returns title, days, week count and roster.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	wb, err := h.load(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// ReplaceWorkbook accepts either the native format or a legacy weeks array.
func (h *Handler) ReplaceWorkbook(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err)
		return
	}
	incoming, err := h.Factory.Parse(data)
	if err != nil {
		writeParseError(w, err)
		return
	}
	wb := h.edit(w, r, "replace workbook", func(wb *payroll.Workbook) error {
		*wb = *incoming
		return nil
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// ImportLegacy imports a legacy weeks array. The title comes from the
// "title" query parameter, or keeps the current one.
func (h *Handler) ImportLegacy(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", err)
		return
	}
	keepTitle := r.URL.Query().Get("title") == ""
	imported, err := h.Factory.ParseLegacy(data, r.URL.Query().Get("title"))
	if err != nil {
		writeParseError(w, err)
		return
	}
	wb := h.edit(w, r, "import legacy weeks", func(wb *payroll.Workbook) error {
		if keepTitle {
			imported.Title = wb.Title
		}
		*wb = *imported
		return nil
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// SetTitle renames the workbook.
func (h *Handler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	wb := h.edit(w, r, "set title", func(wb *payroll.Workbook) error {
		wb.Title = req.Title
		return nil
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// ListIssues reports every malformed or inverted shift.
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	wb, err := h.load(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return
	}
	writeJSON(w, http.StatusOK, append(h.workbookIssues(wb), toIssueDTOs(wb.Validate())...))
}

// workbookIssues reports problems of the workbook as a whole. They carry
// week 0 and no person.
func (h *Handler) workbookIssues(wb *payroll.Workbook) []IssueDTO {
	issues := []IssueDTO{}
	if err := wb.CheckSaturday(h.Engine.Saturday); err != nil {
		issues = append(issues, IssueDTO{Day: string(h.Engine.Saturday), Error: err.Error()})
	}
	return issues
}

// =============================================================================
// WEEK VIEWS
// =============================================================================

// GetWeek returns the schedule, payments, totals and issues of one week.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	wb, err := h.load(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return
	}
	h.respondWeek(w, wb, week)
}

// ListPayments returns the payment of every non-leader in roster order.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	wb, wd, ok := h.loadWeek(w, r, week)
	if !ok {
		return
	}
	results := h.engineFor(wb).ComputeAll(wd)
	dtos := make([]PaymentDTO, len(results))
	for i, res := range results {
		dtos[i] = toPaymentDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayment returns the payment of one person.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	wb, wd, ok := h.loadWeek(w, r, week)
	if !ok {
		return
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))
	res, ok := h.engineFor(wb).ComputePayment(wd, person)
	if !ok {
		if _, known := wd.Schedule[person]; !known {
			writeError(w, http.StatusNotFound, "person not found", fmt.Errorf("%w: %s", payroll.ErrPersonNotFound, person))
			return
		}
		writeError(w, http.StatusBadRequest, "person has no payment", fmt.Errorf("%w: %s", payroll.ErrLeaderHasNoRates, person))
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(res))
}

// GetTotals returns the week totals.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	wb, wd, ok := h.loadWeek(w, r, week)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTotalsDTO(h.engineFor(wb).ComputeWeekTotals(wd)))
}

func (h *Handler) loadWeek(w http.ResponseWriter, r *http.Request, week int) (*payroll.Workbook, *payroll.WeekData, bool) {
	wb, err := h.load(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load workbook", err)
		return nil, nil, false
	}
	wd, err := wb.Week(week)
	if err != nil {
		writeDomainError(w, "week not found", err)
		return nil, nil, false
	}
	return wb, wd, true
}

func (h *Handler) respondWeek(w http.ResponseWriter, wb *payroll.Workbook, week int) {
	wd, err := wb.Week(week)
	if err != nil {
		writeDomainError(w, "week not found", err)
		return
	}
	writeJSON(w, http.StatusOK, h.weekView(wb, week, wd))
}

func (h *Handler) weekView(wb *payroll.Workbook, week int, wd *payroll.WeekData) WeekDTO {
	days := wb.DayList()
	engine := h.engineFor(wb)

	view := WeekDTO{
		Week:     week + 1,
		Days:     dayStrings(days),
		Dates:    make(map[string]string, len(days)),
		Labels:   make(map[string]string, len(payroll.RateKeys)),
		People:   []PersonDTO{},
		Payments: []PaymentDTO{},
		Issues:   h.workbookIssues(wb),
	}
	for _, d := range days {
		view.Dates[string(d)] = wd.Dates[d]
	}
	for _, k := range payroll.RateKeys {
		label := wd.Labels[k]
		if label == "" {
			label = string(k)
		}
		view.Labels[string(k)] = label
	}

	for _, p := range wd.Roster() {
		pd := PersonDTO{
			Name:   string(p),
			Leader: wd.IsLeader(p),
			Shifts: make(map[string]ShiftDTO, len(days)),
		}
		for _, d := range days {
			shift := wd.Schedule[p][d]
			pd.Shifts[string(d)] = toShiftDTO(shift)
			if err := shift.Validate(); err != nil {
				view.Issues = append(view.Issues, IssueDTO{Week: week + 1, Person: string(p), Day: string(d), Error: err.Error()})
			}
		}
		if !pd.Leader {
			if rates, ok := wd.Rates[p]; ok {
				dto := toRatesDTO(rates)
				pd.Rates = &dto
			}
			if bonus, ok := wd.Bonuses[p]; ok {
				dto := toBonusDTO(bonus)
				pd.Bonus = &dto
			}
		}
		view.People = append(view.People, pd)
	}

	results := engine.ComputeAll(wd)
	for _, res := range results {
		view.Payments = append(view.Payments, toPaymentDTO(res))
	}
	view.Totals = toTotalsDTO(payroll.SumResults(results))
	return view
}

// =============================================================================
// WEEK EDITS
// =============================================================================

// UpdateShift replaces one cell.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req ShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = string(payroll.ShiftWorking)
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))
	day := payroll.Day(chi.URLParam(r, "day"))

	wb := h.edit(w, r, fmt.Sprintf("shift %s %s week %d", person, day, week+1), func(wb *payroll.Workbook) error {
		return wb.SetShift(week, person, day, payroll.Shift{Kind: payroll.ShiftKind(req.Kind), Start: req.Start, End: req.End})
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// ToggleDayOff flips a cell between working and day off.
func (h *Handler) ToggleDayOff(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))
	day := payroll.Day(chi.URLParam(r, "day"))

	wb := h.edit(w, r, fmt.Sprintf("toggle %s %s week %d", person, day, week+1), func(wb *payroll.Workbook) error {
		_, err := wb.ToggleDayOff(week, person, day)
		return err
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// UpdateRates sets any subset of A, B and C for one person in one week.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req RatesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))

	wb := h.edit(w, r, fmt.Sprintf("rates %s week %d", person, week+1), func(wb *payroll.Workbook) error {
		changes := []struct {
			key   payroll.RateKey
			value *decimal.Decimal
		}{
			{payroll.RateBase, req.A},
			{payroll.RateSolo, req.B},
			{payroll.RateSaturday, req.C},
		}
		for _, c := range changes {
			if c.value == nil {
				continue
			}
			if err := wb.SetRate(week, person, c.key, *c.value); err != nil {
				return err
			}
		}
		return nil
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// UpdateBonus replaces the bonus of one person in one week.
func (h *Handler) UpdateBonus(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req BonusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))

	wb := h.edit(w, r, fmt.Sprintf("bonus %s week %d", person, week+1), func(wb *payroll.Workbook) error {
		return wb.SetBonus(week, person, payroll.BonusConfig{
			Enabled:     req.Enabled,
			Description: req.Description,
			Amount:      req.Amount,
		})
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// UpdateDate sets the display date of a day.
func (h *Handler) UpdateDate(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req LabelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	day := payroll.Day(chi.URLParam(r, "day"))

	wb := h.edit(w, r, fmt.Sprintf("date %s week %d", day, week+1), func(wb *payroll.Workbook) error {
		return wb.SetDate(week, day, req.Label)
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// UpdateLabel sets the display name of a rate tier.
func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	var req LabelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key := payroll.RateKey(chi.URLParam(r, "key"))

	wb := h.edit(w, r, fmt.Sprintf("label %s week %d", key, week+1), func(wb *payroll.Workbook) error {
		return wb.SetLabel(week, key, req.Label)
	})
	if wb == nil {
		return
	}
	h.respondWeek(w, wb, week)
}

// =============================================================================
// ROSTER ENDPOINTS
// =============================================================================

// AddPerson adds a person to every week with default rates.
func (h *Handler) AddPerson(w http.ResponseWriter, r *http.Request) {
	var req AddPersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var added payroll.PersonID
	wb := h.edit(w, r, "add person "+req.Name, func(wb *payroll.Workbook) error {
		name, err := wb.AddPerson(payroll.PersonID(req.Name), h.Defaults.Rates)
		if err != nil {
			return err
		}
		added = name
		if req.Leader {
			return wb.SetLeader(name, true, h.Defaults.Rates)
		}
		return nil
	})
	if wb == nil {
		return
	}
	h.Logger.Info("person added", slog.String("person", string(added)), slog.Bool("leader", req.Leader))
	writeJSON(w, http.StatusCreated, summaryOf(wb))
}

// RenamePerson renames a person in every week.
func (h *Handler) RenamePerson(w http.ResponseWriter, r *http.Request) {
	var req RenamePersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	old := payroll.PersonID(chi.URLParam(r, "person"))
	wb := h.edit(w, r, fmt.Sprintf("rename %s to %s", old, req.Name), func(wb *payroll.Workbook) error {
		_, err := wb.RenamePerson(old, payroll.PersonID(req.Name))
		return err
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// RemovePerson removes a person from every week.
func (h *Handler) RemovePerson(w http.ResponseWriter, r *http.Request) {
	person := payroll.PersonID(chi.URLParam(r, "person"))
	wb := h.edit(w, r, "remove "+string(person), func(wb *payroll.Workbook) error {
		return wb.RemovePerson(person)
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// SetLeader flags or unflags a person as leader in every week.
func (h *Handler) SetLeader(w http.ResponseWriter, r *http.Request) {
	var req LeaderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	person := payroll.PersonID(chi.URLParam(r, "person"))
	wb := h.edit(w, r, fmt.Sprintf("leader %s=%t", person, req.Leader), func(wb *payroll.Workbook) error {
		return wb.SetLeader(person, req.Leader, h.Defaults.Rates)
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// =============================================================================
// HISTORY ENDPOINTS
// =============================================================================

// ListRevisions returns the save history, newest first.
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}
	revs, err := h.Store.Revisions(r.Context(), limit)
	if err != nil {
		writeDomainError(w, "failed to list revisions", err)
		return
	}
	dtos := make([]RevisionDTO, len(revs))
	for i, rev := range revs {
		dtos[i] = toRevisionDTO(rev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RestoreRevision saves an old revision as the latest workbook.
func (h *Handler) RestoreRevision(w http.ResponseWriter, r *http.Request) {
	id := payroll.RevisionID(chi.URLParam(r, "id"))
	wb := h.edit(w, r, "restore "+string(id), func(wb *payroll.Workbook) error {
		old, err := h.Store.LoadRevision(r.Context(), id)
		if err != nil {
			return err
		}
		*wb = *old
		return nil
	})
	if wb == nil {
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(wb))
}

// TimeOptions lists the times offered by the shift picker.
func (h *Handler) TimeOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, payroll.TimeOptions())
}

// =============================================================================
// HELPERS
// =============================================================================

func summaryOf(wb *payroll.Workbook) WorkbookSummaryDTO {
	people := wb.People()
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = string(p)
	}
	return WorkbookSummaryDTO{
		Title:  wb.Title,
		Days:   dayStrings(wb.DayList()),
		Weeks:  len(wb.Weeks),
		People: names,
	}
}

// weekParam reads the 1-based {week} URL parameter and returns it 0-based.
func weekParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "invalid week", fmt.Errorf("%w: %q", payroll.ErrWeekOutOfRange, chi.URLParam(r, "week")))
		return 0, false
	}
	return n - 1, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeParseError reports a rejected workbook payload.
func writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, payroll.ErrRosterInconsistent) {
		writeDomainError(w, "invalid workbook", err)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid workbook", err)
}

// writeDomainError maps payroll errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var rie *payroll.RosterInconsistencyError
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case payroll.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.As(err, &rie):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: rie.Problems})
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
