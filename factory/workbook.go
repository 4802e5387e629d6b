/*
Package factory provides JSON to workbook conversion.

PURPOSE:
  Converts workbook JSON into payroll.Workbook. Two formats are accepted:
  the native format written by this service, and the legacy format the
  browser app kept in local storage (a bare array of weeks).

LEGACY SCHEMA (one element per week):
  {
    "labels":  {"A": "A", "B": "B", "C": "C"},
    "dates":   {"Pon": "", "Wt": "", "Śr": "", "Czw": "", "Pt": "", "Sob": ""},
    "rates":   {"Kasia": {"A": 25, "B": 7, "C": 2}},
    "bonuses": {"Kasia": {"enabled": false, "description": "", "amount": 0}},
    "schedule": {
      "Leader": {"Pon": {"type": "time", "start": "", "end": ""}},
      "Kasia":  {"Pon": {"type": "time", "start": "6:20", "end": "12:15"}}
    }
  }

TRANSLATION:
  - Polish day keys map to Mon..Sat; other keys are kept verbatim
  - "type": "time" or missing -> working, "wolne" -> day off, anything else is kept
    and contributes nothing
  - The person named "Leader" becomes a leader flag, without rates
  - Non-leaders missing rates or bonus get the defaults
  - Key order of "dates" and "schedule" becomes day and roster order

USAGE:
  f := factory.NewWorkbookFactory(payroll.StandardDefaults())
  wb, err := f.Parse(data)
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/payroll"
)

// LegacyLeaderName is the sentinel name the browser app used for leaders.
const LegacyLeaderName = "Leader"

var legacyDays = map[string]payroll.Day{
	"Pon": "Mon",
	"Wt":  "Tue",
	"Śr":  "Wed",
	"Czw": "Thu",
	"Pt":  "Fri",
	"Sob": "Sat",
}

// The oldest variant stored no type at all; it counted as working.
var legacyKinds = map[string]payroll.ShiftKind{
	"":      payroll.ShiftWorking,
	"time":  payroll.ShiftWorking,
	"wolne": payroll.ShiftDayOff,
}

// ErrUnknownFormat is returned when the payload is neither format.
var ErrUnknownFormat = errors.New("unrecognized workbook format")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LegacyWeekJSON is one week in the browser app's local storage.
type LegacyWeekJSON struct {
	Labels   map[string]string          `json:"labels"`
	Dates    json.RawMessage            `json:"dates"`
	Rates    map[string]LegacyRatesJSON `json:"rates"`
	Bonuses  map[string]LegacyBonusJSON `json:"bonuses"`
	Schedule json.RawMessage            `json:"schedule"`
}

type LegacyRatesJSON struct {
	A decimal.Decimal `json:"A"`
	B decimal.Decimal `json:"B"`
	C decimal.Decimal `json:"C"`
}

type LegacyBonusJSON struct {
	Enabled     bool            `json:"enabled"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type LegacyShiftJSON struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// =============================================================================
// FACTORY
// =============================================================================

// WorkbookFactory builds workbooks, filling gaps from Defaults.
type WorkbookFactory struct {
	Defaults payroll.Defaults
}

func NewWorkbookFactory(d payroll.Defaults) *WorkbookFactory {
	return &WorkbookFactory{Defaults: d}
}

// Parse detects the format and decodes either a native workbook or a legacy
// weeks array.
func (f *WorkbookFactory) Parse(data []byte) (*payroll.Workbook, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrUnknownFormat
	}
	switch trimmed[0] {
	case '[':
		return f.ParseLegacy(trimmed, payroll.DefaultTitle)
	case '{':
		return f.ParseNative(trimmed)
	}
	return nil, ErrUnknownFormat
}

// ParseNative decodes the format produced by json.Marshal(*payroll.Workbook).
func (f *WorkbookFactory) ParseNative(data []byte) (*payroll.Workbook, error) {
	var wb payroll.Workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	if wb.Weeks == nil {
		return nil, fmt.Errorf("%w: missing weeks", ErrUnknownFormat)
	}
	if wb.Title == "" {
		wb.Title = payroll.DefaultTitle
	}
	if len(wb.Days) == 0 {
		wb.Days = append([]payroll.Day(nil), f.Defaults.Days...)
	}
	if err := wb.CheckConsistency(); err != nil {
		return nil, err
	}
	return &wb, nil
}

// ParseLegacy decodes a local-storage weeks array.
func (f *WorkbookFactory) ParseLegacy(data []byte, title string) (*payroll.Workbook, error) {
	var weeks []LegacyWeekJSON
	if err := json.Unmarshal(data, &weeks); err != nil {
		return nil, fmt.Errorf("failed to parse legacy weeks: %w", err)
	}

	wb := &payroll.Workbook{Title: title}
	for i, lw := range weeks {
		w, days, err := f.fromLegacyWeek(lw)
		if err != nil {
			return nil, fmt.Errorf("week %d: %w", i+1, err)
		}
		if i == 0 {
			wb.Days = days
		}
		wb.Weeks = append(wb.Weeks, w)
	}
	if len(wb.Days) == 0 {
		wb.Days = append([]payroll.Day(nil), f.Defaults.Days...)
	}
	if err := wb.CheckConsistency(); err != nil {
		return nil, err
	}
	return wb, nil
}

func (f *WorkbookFactory) fromLegacyWeek(lw LegacyWeekJSON) (payroll.WeekData, []payroll.Day, error) {
	w := payroll.Defaults{Days: nil}.EmptyWeek()

	for k, v := range lw.Labels {
		w.Labels[payroll.RateKey(k)] = v
	}

	var days []payroll.Day
	if len(lw.Dates) > 0 {
		keys, err := objectKeys(lw.Dates)
		if err != nil {
			return w, nil, fmt.Errorf("dates: %w", err)
		}
		var dates map[string]string
		if err := json.Unmarshal(lw.Dates, &dates); err != nil {
			return w, nil, fmt.Errorf("dates: %w", err)
		}
		for _, k := range keys {
			d := dayFromLegacy(k)
			days = append(days, d)
			w.Dates[d] = dates[k]
		}
	}

	people, err := objectKeys(lw.Schedule)
	if err != nil {
		return w, nil, fmt.Errorf("schedule: %w", err)
	}
	var schedule map[string]map[string]LegacyShiftJSON
	if err := json.Unmarshal(lw.Schedule, &schedule); err != nil {
		return w, nil, fmt.Errorf("schedule: %w", err)
	}

	for _, name := range people {
		p := payroll.PersonID(name)
		s := make(payroll.PersonSchedule, len(schedule[name]))
		for k, shift := range schedule[name] {
			s[dayFromLegacy(k)] = shiftFromLegacy(shift)
		}
		w.People = append(w.People, p)
		w.Schedule[p] = s

		if name == LegacyLeaderName {
			w.Leaders[p] = true
			continue
		}
		if r, ok := lw.Rates[name]; ok {
			w.Rates[p] = payroll.RateTable{A: r.A, B: r.B, C: r.C}
		} else {
			w.Rates[p] = f.Defaults.Rates
		}
		if b, ok := lw.Bonuses[name]; ok {
			w.Bonuses[p] = payroll.BonusConfig{Enabled: b.Enabled, Description: b.Description, Amount: b.Amount}
		} else {
			w.Bonuses[p] = payroll.NoBonus()
		}
	}
	return w, days, nil
}

func dayFromLegacy(k string) payroll.Day {
	if d, ok := legacyDays[k]; ok {
		return d
	}
	return payroll.Day(k)
}

func shiftFromLegacy(s LegacyShiftJSON) payroll.Shift {
	kind, ok := legacyKinds[s.Type]
	if !ok {
		kind = payroll.ShiftKind(s.Type)
	}
	if kind == payroll.ShiftDayOff {
		return payroll.DayOff()
	}
	return payroll.Shift{Kind: kind, Start: s.Start, End: s.End}
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key")
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
