/*
workbook.go - The multi-week workbook and its editing operations

PURPOSE:
  A Workbook is the unit that gets persisted: a title and a list of weeks.
  All mutations go through methods here so the roster stays consistent:
  the same people appear in every week, and each non-leader has a schedule,
  a rate table and a bonus in every week.

ROSTER OPERATIONS:
  AddPerson, RenamePerson, RemovePerson, SetLeader apply to every week at
  once. Each checks its preconditions before touching anything, so a failed
  call leaves the workbook unchanged.

CELL OPERATIONS:
  SetShift, SetShiftTime, ToggleDayOff, SetRate, SetBonus, SetDate, SetLabel
  edit one week.
*/
package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Workbook is the persisted whole: a title and consecutive weeks.
type Workbook struct {
	Title string     `json:"title"`
	Days  []Day      `json:"days"`
	Weeks []WeekData `json:"weeks"`
}

// ShiftField selects the start or end time of a shift.
type ShiftField string

const (
	FieldStart ShiftField = "start"
	FieldEnd   ShiftField = "end"
)

// DayList returns the workbook's day keys, falling back to DefaultDays.
func (wb *Workbook) DayList() []Day {
	if len(wb.Days) > 0 {
		return wb.Days
	}
	return DefaultDays
}

func (wb *Workbook) hasDay(d Day) bool {
	for _, day := range wb.DayList() {
		if day == d {
			return true
		}
	}
	return false
}

// Week returns week i (0-based).
func (wb *Workbook) Week(i int) (*WeekData, error) {
	if i < 0 || i >= len(wb.Weeks) {
		return nil, fmt.Errorf("%w: %d of %d", ErrWeekOutOfRange, i+1, len(wb.Weeks))
	}
	return &wb.Weeks[i], nil
}

// Has reports whether p is on the roster of any week.
func (wb *Workbook) Has(p PersonID) bool {
	for i := range wb.Weeks {
		if _, ok := wb.Weeks[i].Schedule[p]; ok {
			return true
		}
	}
	return false
}

// People returns the roster of the first week.
func (wb *Workbook) People() []PersonID {
	if len(wb.Weeks) == 0 {
		return nil
	}
	return wb.Weeks[0].Roster()
}

// Clone returns a deep copy.
func (wb *Workbook) Clone() *Workbook {
	c := &Workbook{Title: wb.Title, Days: append([]Day(nil), wb.Days...)}
	for i := range wb.Weeks {
		c.Weeks = append(c.Weeks, wb.Weeks[i].Clone())
	}
	return c
}

// =============================================================================
// ROSTER
// =============================================================================

func normalizeName(p PersonID) (PersonID, error) {
	name := PersonID(strings.TrimSpace(string(p)))
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// AddPerson adds p to every week with an empty schedule, the given rates and
// no bonus.
func (wb *Workbook) AddPerson(p PersonID, rates RateTable) (PersonID, error) {
	name, err := normalizeName(p)
	if err != nil {
		return "", err
	}
	if wb.Has(name) {
		return "", fmt.Errorf("%w: %s", ErrPersonExists, name)
	}
	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		ensureMaps(w)
		w.People = append(w.People, name)
		w.Schedule[name] = EmptySchedule(wb.DayList())
		w.Rates[name] = rates
		w.Bonuses[name] = NoBonus()
	}
	return name, nil
}

// RenamePerson renames old to name in every week and every map.
func (wb *Workbook) RenamePerson(old, p PersonID) (PersonID, error) {
	name, err := normalizeName(p)
	if err != nil {
		return "", err
	}
	if !wb.Has(old) {
		return "", fmt.Errorf("%w: %s", ErrPersonNotFound, old)
	}
	if name == old {
		return name, nil
	}
	if wb.Has(name) {
		return "", fmt.Errorf("%w: %s", ErrPersonExists, name)
	}
	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		for j, q := range w.People {
			if q == old {
				w.People[j] = name
			}
		}
		if v, ok := w.Schedule[old]; ok {
			delete(w.Schedule, old)
			w.Schedule[name] = v
		}
		if v, ok := w.Rates[old]; ok {
			delete(w.Rates, old)
			w.Rates[name] = v
		}
		if v, ok := w.Bonuses[old]; ok {
			delete(w.Bonuses, old)
			w.Bonuses[name] = v
		}
		if w.Leaders[old] {
			delete(w.Leaders, old)
			w.Leaders[name] = true
		}
	}
	return name, nil
}

// RemovePerson deletes p from every week.
func (wb *Workbook) RemovePerson(p PersonID) error {
	if !wb.Has(p) {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, p)
	}
	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		people := w.People[:0]
		for _, q := range w.People {
			if q != p {
				people = append(people, q)
			}
		}
		w.People = people
		delete(w.Schedule, p)
		delete(w.Rates, p)
		delete(w.Bonuses, p)
		delete(w.Leaders, p)
	}
	return nil
}

// SetLeader flags or unflags p in every week. Leaders lose their rates and
// bonus; a person who stops being a leader gets rates and no bonus.
func (wb *Workbook) SetLeader(p PersonID, leader bool, rates RateTable) error {
	if !wb.Has(p) {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, p)
	}
	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		ensureMaps(w)
		if leader {
			w.Leaders[p] = true
			delete(w.Rates, p)
			delete(w.Bonuses, p)
			continue
		}
		delete(w.Leaders, p)
		if _, ok := w.Rates[p]; !ok {
			w.Rates[p] = rates
		}
		if _, ok := w.Bonuses[p]; !ok {
			w.Bonuses[p] = NoBonus()
		}
	}
	return nil
}

// CheckConsistency verifies the roster invariant across all weeks.
func (wb *Workbook) CheckConsistency() error {
	var problems []string
	var reference map[PersonID]bool

	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		label := fmt.Sprintf("week %d", i+1)

		listed := make(map[PersonID]bool, len(w.People))
		for _, p := range w.People {
			if listed[p] {
				problems = append(problems, fmt.Sprintf("%s: %s listed twice", label, p))
			}
			listed[p] = true
			if _, ok := w.Schedule[p]; !ok {
				problems = append(problems, fmt.Sprintf("%s: %s has no schedule", label, p))
			}
		}
		for p := range w.Schedule {
			if !listed[p] {
				problems = append(problems, fmt.Sprintf("%s: %s not in people", label, p))
			}
			if w.IsLeader(p) {
				if _, ok := w.Rates[p]; ok {
					problems = append(problems, fmt.Sprintf("%s: leader %s has rates", label, p))
				}
				if _, ok := w.Bonuses[p]; ok {
					problems = append(problems, fmt.Sprintf("%s: leader %s has a bonus", label, p))
				}
				continue
			}
			if _, ok := w.Rates[p]; !ok {
				problems = append(problems, fmt.Sprintf("%s: %s has no rates", label, p))
			}
			if _, ok := w.Bonuses[p]; !ok {
				problems = append(problems, fmt.Sprintf("%s: %s has no bonus", label, p))
			}
		}
		for p := range w.Rates {
			if _, ok := w.Schedule[p]; !ok {
				problems = append(problems, fmt.Sprintf("%s: rates for unknown %s", label, p))
			}
		}
		for p := range w.Bonuses {
			if _, ok := w.Schedule[p]; !ok {
				problems = append(problems, fmt.Sprintf("%s: bonus for unknown %s", label, p))
			}
		}
		for p, ok := range w.Leaders {
			if _, known := w.Schedule[p]; ok && !known {
				problems = append(problems, fmt.Sprintf("%s: leader flag for unknown %s", label, p))
			}
		}

		if reference == nil {
			reference = listed
			continue
		}
		if !sameSet(reference, listed) {
			problems = append(problems, fmt.Sprintf("%s: roster differs from week 1", label))
		}
	}

	if len(problems) > 0 {
		return &RosterInconsistencyError{Problems: problems}
	}
	return nil
}

func sameSet(a, b map[PersonID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func ensureMaps(w *WeekData) {
	if w.Dates == nil {
		w.Dates = map[Day]string{}
	}
	if w.Labels == nil {
		w.Labels = map[RateKey]string{}
	}
	if w.Leaders == nil {
		w.Leaders = map[PersonID]bool{}
	}
	if w.Schedule == nil {
		w.Schedule = map[PersonID]PersonSchedule{}
	}
	if w.Rates == nil {
		w.Rates = map[PersonID]RateTable{}
	}
	if w.Bonuses == nil {
		w.Bonuses = map[PersonID]BonusConfig{}
	}
}

// =============================================================================
// CELL EDITS
// =============================================================================

func (wb *Workbook) scheduleOf(week int, p PersonID, day Day) (PersonSchedule, error) {
	w, err := wb.Week(week)
	if err != nil {
		return nil, err
	}
	if !wb.hasDay(day) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	s, ok := w.Schedule[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonNotFound, p)
	}
	return s, nil
}

func checkTime(value string) error {
	if value == "" {
		return nil
	}
	_, err := ParseClock(value)
	return err
}

// SetShift replaces a whole cell. Times must be empty or well formed.
func (wb *Workbook) SetShift(week int, p PersonID, day Day, shift Shift) error {
	s, err := wb.scheduleOf(week, p, day)
	if err != nil {
		return err
	}
	if shift.Kind != ShiftWorking && shift.Kind != ShiftDayOff {
		return fmt.Errorf("%w: %q", ErrUnknownKind, shift.Kind)
	}
	if shift.Kind == ShiftDayOff {
		s[day] = DayOff()
		return nil
	}
	if err := checkTime(shift.Start); err != nil {
		return err
	}
	if err := checkTime(shift.End); err != nil {
		return err
	}
	s[day] = Shift{Kind: ShiftWorking, Start: strings.TrimSpace(shift.Start), End: strings.TrimSpace(shift.End)}
	return nil
}

// SetShiftTime edits the start or end of a cell and marks it working.
func (wb *Workbook) SetShiftTime(week int, p PersonID, day Day, field ShiftField, value string) error {
	s, err := wb.scheduleOf(week, p, day)
	if err != nil {
		return err
	}
	if err := checkTime(value); err != nil {
		return err
	}
	cell := s[day]
	cell.Kind = ShiftWorking
	switch field {
	case FieldStart:
		cell.Start = strings.TrimSpace(value)
	case FieldEnd:
		cell.End = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: field %q", ErrUnknownKind, field)
	}
	s[day] = cell
	return nil
}

// ToggleDayOff flips a cell between working and day off and clears its
// times either way.
func (wb *Workbook) ToggleDayOff(week int, p PersonID, day Day) (Shift, error) {
	s, err := wb.scheduleOf(week, p, day)
	if err != nil {
		return Shift{}, err
	}
	next := DayOff()
	if s[day].Kind == ShiftDayOff {
		next = Shift{Kind: ShiftWorking}
	}
	s[day] = next
	return next, nil
}

func (wb *Workbook) payable(week int, p PersonID) (*WeekData, error) {
	w, err := wb.Week(week)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Schedule[p]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonNotFound, p)
	}
	if w.IsLeader(p) {
		return nil, fmt.Errorf("%w: %s", ErrLeaderHasNoRates, p)
	}
	ensureMaps(w)
	return w, nil
}

// SetRate sets one rate of p in one week.
func (wb *Workbook) SetRate(week int, p PersonID, key RateKey, value decimal.Decimal) error {
	w, err := wb.payable(week, p)
	if err != nil {
		return err
	}
	next, ok := w.Rates[p].With(key, value)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRateKey, key)
	}
	w.Rates[p] = next
	return nil
}

// SetRates replaces the whole rate table of p in one week.
func (wb *Workbook) SetRates(week int, p PersonID, rates RateTable) error {
	w, err := wb.payable(week, p)
	if err != nil {
		return err
	}
	w.Rates[p] = rates
	return nil
}

// SetBonus replaces the bonus of p in one week.
func (wb *Workbook) SetBonus(week int, p PersonID, bonus BonusConfig) error {
	w, err := wb.payable(week, p)
	if err != nil {
		return err
	}
	w.Bonuses[p] = bonus
	return nil
}

// SetDate sets the display date of a day in one week.
func (wb *Workbook) SetDate(week int, day Day, label string) error {
	w, err := wb.Week(week)
	if err != nil {
		return err
	}
	if !wb.hasDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	ensureMaps(w)
	w.Dates[day] = label
	return nil
}

// SetLabel sets the display name of a rate tier in one week.
func (wb *Workbook) SetLabel(week int, key RateKey, label string) error {
	w, err := wb.Week(week)
	if err != nil {
		return err
	}
	if _, ok := (RateTable{}).Get(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRateKey, key)
	}
	ensureMaps(w)
	w.Labels[key] = label
	return nil
}

// CheckSaturday returns ErrSaturdayNotInDays when saturday is set but is not
// one of the workbook's days.
func (wb *Workbook) CheckSaturday(saturday Day) error {
	if saturday == "" || wb.hasDay(saturday) {
		return nil
	}
	return fmt.Errorf("%w: %s not in %v", ErrSaturdayNotInDays, saturday, wb.DayList())
}

// Validate lists every malformed or inverted shift in the workbook.
func (wb *Workbook) Validate() []ShiftIssue {
	var issues []ShiftIssue
	for i := range wb.Weeks {
		w := &wb.Weeks[i]
		for _, p := range w.Roster() {
			for _, day := range wb.DayList() {
				if err := w.Schedule[p][day].Validate(); err != nil {
					issues = append(issues, ShiftIssue{Week: i, Person: p, Day: day, Err: err})
				}
			}
		}
	}
	return issues
}
