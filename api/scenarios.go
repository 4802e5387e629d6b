/*
scenarios.go - Demo workbooks for testing and demonstrations

PURPOSE:

	Provides pre-built workbooks that replace the current one. Loading a
	scenario is an ordinary save, so the previous workbook stays in the
	revision history and can be restored.

AVAILABLE SCENARIOS:

	sample:   Leader plus three staff with overlapping shifts (the seed data)
	empty:    Same roster, no shifts entered yet
	overlap:  Two people whose shifts partly overlap, to show solo pay

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overlap"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a builder to scenarioBuilders

SEE ALSO:
  - handlers.go: edit cycle and error mapping
  - payroll/seed.go: seed workbooks
*/
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "sample",
		Name:        "Sample Week",
		Description: "A leader and three staff members with overlapping shifts across every week.",
	},
	{
		ID:          "empty",
		Name:        "Empty Schedule",
		Description: "The same roster with no shifts entered yet.",
	},
	{
		ID:          "overlap",
		Name:        "Partial Overlap",
		Description: "Anna works 08:00-16:00, Bartek joins 10:00-14:00; Anna earns solo pay for four hours a day.",
	},
}

var scenarioBuilders = map[string]func(d payroll.Defaults) (*payroll.Workbook, error){
	"sample":  sampleScenario,
	"empty":   emptyScenario,
	"overlap": overlapScenario,
}

func sampleScenario(d payroll.Defaults) (*payroll.Workbook, error) {
	return d.SampleWorkbook(), nil
}

func emptyScenario(d payroll.Defaults) (*payroll.Workbook, error) {
	wb := d.SampleWorkbook()
	for i := range wb.Weeks {
		for p := range wb.Weeks[i].Schedule {
			wb.Weeks[i].Schedule[p] = payroll.EmptySchedule(wb.DayList())
		}
	}
	return wb, nil
}

func overlapScenario(d payroll.Defaults) (*payroll.Workbook, error) {
	wb := d.NewWorkbook()
	for _, p := range []payroll.PersonID{"Anna", "Bartek"} {
		if _, err := wb.AddPerson(p, d.Rates); err != nil {
			return nil, err
		}
	}
	for i := range wb.Weeks {
		for _, day := range wb.DayList() {
			if err := wb.SetShift(i, "Anna", day, payroll.WorkingShift("08:00", "16:00")); err != nil {
				return nil, err
			}
			if err := wb.SetShift(i, "Bartek", day, payroll.WorkingShift("10:00", "14:00")); err != nil {
				return nil, err
			}
		}
	}
	return wb, nil
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the workbook with a predefined one.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	build, ok := scenarioBuilders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q not found", req.ScenarioID))
		return
	}

	wb := h.edit(w, r, "load scenario "+req.ScenarioID, func(wb *payroll.Workbook) error {
		built, err := build(h.Defaults)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", req.ScenarioID, err)
		}
		*wb = *built
		return nil
	})
	if wb == nil {
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", slog.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario": req.ScenarioID,
		"workbook": summaryOf(wb),
	})
}
