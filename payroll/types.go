/*
Package payroll provides the shift coverage and payment engine.

PURPOSE:
  Turns a week of shift times into hours worked, solo coverage hours,
  Saturday hours and a payment breakdown per person. The engine is pure:
  it reads a WeekData snapshot and returns fresh results, nothing is cached
  and nothing is written.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: one person's commitment for one day (working or day off)
  - WeekData: one week of schedules, rates, bonuses and labels
  - RateTable / BonusConfig: per person, per week pay configuration
  - PaymentResult / WeekTotals: derived, never persisted

DESIGN PRINCIPLES:
  1. Minutes are integers; hours and money are decimal.Decimal
  2. Leaders are a flag on the week, and carry no rates or bonus
  3. Malformed input degrades to "no contribution", never to a panic

SEE ALSO:
  - interval.go: time parsing and interval arithmetic
  - coverage.go: solo minute calculation
  - engine.go: payment aggregation
  - workbook.go: roster and edit operations
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// PersonID is the roster key of a person. It is also the display name.
type PersonID string

// Day is a day key of the configured week, e.g. "Mon".
type Day string

// RateKey names one of the three hourly rate tiers.
type RateKey string

const (
	RateBase     RateKey = "A" // base hourly rate
	RateSolo     RateKey = "B" // solo coverage hourly bonus
	RateSaturday RateKey = "C" // Saturday hourly bonus
)

// RateKeys lists the rate tiers in display order.
var RateKeys = []RateKey{RateBase, RateSolo, RateSaturday}

// =============================================================================
// SHIFT
// =============================================================================

type ShiftKind string

const (
	ShiftWorking ShiftKind = "working"
	ShiftDayOff  ShiftKind = "day_off"
)

// Shift is one person's commitment for one day. Start and End are wall-clock
// times in "H:MM" or "HH:MM" form and are only meaningful when Kind is
// ShiftWorking.
type Shift struct {
	Kind  ShiftKind `json:"kind"`
	Start string    `json:"start"`
	End   string    `json:"end"`
}

// WorkingShift is a convenience constructor.
func WorkingShift(start, end string) Shift {
	return Shift{Kind: ShiftWorking, Start: start, End: end}
}

// DayOff returns a day-off shift.
func DayOff() Shift {
	return Shift{Kind: ShiftDayOff}
}

// PersonSchedule maps each day of a week to a shift.
type PersonSchedule map[Day]Shift

// =============================================================================
// PAY CONFIGURATION
// =============================================================================

// RateTable holds the three hourly rates of a person for one week.
type RateTable struct {
	A decimal.Decimal `json:"A"`
	B decimal.Decimal `json:"B"`
	C decimal.Decimal `json:"C"`
}

// Get returns the rate for key.
func (r RateTable) Get(key RateKey) (decimal.Decimal, bool) {
	switch key {
	case RateBase:
		return r.A, true
	case RateSolo:
		return r.B, true
	case RateSaturday:
		return r.C, true
	}
	return decimal.Zero, false
}

// With returns a copy of r with key set to value.
func (r RateTable) With(key RateKey, value decimal.Decimal) (RateTable, bool) {
	switch key {
	case RateBase:
		r.A = value
	case RateSolo:
		r.B = value
	case RateSaturday:
		r.C = value
	default:
		return r, false
	}
	return r, true
}

// BonusConfig is a flat weekly add-on, independent of hours.
type BonusConfig struct {
	Enabled     bool            `json:"enabled"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Pay returns the bonus amount that applies, zero when disabled.
func (b BonusConfig) Pay() decimal.Decimal {
	if !b.Enabled {
		return decimal.Zero
	}
	return b.Amount
}

// =============================================================================
// WEEK DATA
// =============================================================================

// WeekData is one week of the workbook. The roster is the key set of
// Schedule; People keeps display order. Non-leaders have an entry in Rates
// and Bonuses, leaders have neither.
type WeekData struct {
	Dates    map[Day]string              `json:"dates"`
	Labels   map[RateKey]string          `json:"labels"`
	People   []PersonID                  `json:"people"`
	Leaders  map[PersonID]bool           `json:"leaders"`
	Schedule map[PersonID]PersonSchedule `json:"schedule"`
	Rates    map[PersonID]RateTable      `json:"rates"`
	Bonuses  map[PersonID]BonusConfig    `json:"bonuses"`
}

// IsLeader reports whether p is flagged as leader in this week.
func (w *WeekData) IsLeader(p PersonID) bool {
	return w.Leaders[p]
}

// Roster returns the people of the week in display order. People present in
// Schedule but missing from People are appended in key order.
func (w *WeekData) Roster() []PersonID {
	seen := make(map[PersonID]bool, len(w.Schedule))
	out := make([]PersonID, 0, len(w.Schedule))
	for _, p := range w.People {
		if _, ok := w.Schedule[p]; ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	var extra []PersonID
	for p := range w.Schedule {
		if !seen[p] {
			extra = append(extra, p)
		}
	}
	sortPersons(extra)
	return append(out, extra...)
}

// Clone returns a deep copy of the week.
func (w *WeekData) Clone() WeekData {
	c := WeekData{
		Dates:    make(map[Day]string, len(w.Dates)),
		Labels:   make(map[RateKey]string, len(w.Labels)),
		People:   append([]PersonID(nil), w.People...),
		Leaders:  make(map[PersonID]bool, len(w.Leaders)),
		Schedule: make(map[PersonID]PersonSchedule, len(w.Schedule)),
		Rates:    make(map[PersonID]RateTable, len(w.Rates)),
		Bonuses:  make(map[PersonID]BonusConfig, len(w.Bonuses)),
	}
	for k, v := range w.Dates {
		c.Dates[k] = v
	}
	for k, v := range w.Labels {
		c.Labels[k] = v
	}
	for k, v := range w.Leaders {
		c.Leaders[k] = v
	}
	for p, days := range w.Schedule {
		d := make(PersonSchedule, len(days))
		for k, v := range days {
			d[k] = v
		}
		c.Schedule[p] = d
	}
	for k, v := range w.Rates {
		c.Rates[k] = v
	}
	for k, v := range w.Bonuses {
		c.Bonuses[k] = v
	}
	return c
}

// =============================================================================
// RESULTS - Derived, never stored
// =============================================================================

// Minutes are the exact minute counts behind Hours.
type Minutes struct {
	Total    int `json:"total"`
	Solo     int `json:"solo"`
	Saturday int `json:"saturday"`
}

type Hours struct {
	Total    decimal.Decimal `json:"total"`
	Solo     decimal.Decimal `json:"solo"`
	Saturday decimal.Decimal `json:"saturday"`
}

type Payments struct {
	Base     decimal.Decimal `json:"base"`
	Solo     decimal.Decimal `json:"solo"`
	Saturday decimal.Decimal `json:"saturday"`
	Bonus    decimal.Decimal `json:"bonus"`
	Total    decimal.Decimal `json:"total"`
}

func (p Payments) Add(o Payments) Payments {
	return Payments{
		Base:     p.Base.Add(o.Base),
		Solo:     p.Solo.Add(o.Solo),
		Saturday: p.Saturday.Add(o.Saturday),
		Bonus:    p.Bonus.Add(o.Bonus),
		Total:    p.Total.Add(o.Total),
	}
}

// PaymentResult is the computed pay of one person for one week.
type PaymentResult struct {
	Person   PersonID    `json:"person"`
	Minutes  Minutes     `json:"minutes"`
	Hours    Hours       `json:"hours"`
	Payments Payments    `json:"payments"`
	Rates    RateTable   `json:"rates"`
	Bonus    BonusConfig `json:"bonus"`
}

// WeekTotals sums every included PaymentResult of a week.
type WeekTotals struct {
	People   int      `json:"people"`
	Minutes  Minutes  `json:"minutes"`
	Hours    Hours    `json:"hours"`
	Payments Payments `json:"payments"`
}

func zeroPayments() Payments {
	return Payments{Base: decimal.Zero, Solo: decimal.Zero, Saturday: decimal.Zero, Bonus: decimal.Zero, Total: decimal.Zero}
}
