package payroll

import (
	"github.com/shopspring/decimal"
)

// DefaultWeeks is the number of weeks in a fresh workbook.
const DefaultWeeks = 5

// DefaultTitle is the header of a fresh workbook.
const DefaultTitle = "Grafik Pracy"

// Defaults seeds new weeks and new people.
type Defaults struct {
	Days  []Day
	Weeks int
	Rates RateTable
}

// StandardDefaults returns Mon..Sat, five weeks and rates 25/7/2.
func StandardDefaults() Defaults {
	return Defaults{
		Days:  DefaultDays,
		Weeks: DefaultWeeks,
		Rates: Rates(25, 7, 2),
	}
}

// Rates builds a RateTable from integer rates.
func Rates(a, b, c int64) RateTable {
	return RateTable{A: decimal.NewFromInt(a), B: decimal.NewFromInt(b), C: decimal.NewFromInt(c)}
}

// NoBonus is the bonus of a newly added person.
func NoBonus() BonusConfig {
	return BonusConfig{Amount: decimal.Zero}
}

// EmptySchedule returns a schedule with an unfilled working shift per day.
func EmptySchedule(days []Day) PersonSchedule {
	s := make(PersonSchedule, len(days))
	for _, d := range days {
		s[d] = Shift{Kind: ShiftWorking}
	}
	return s
}

// EmptyWeek returns a week with labels and dates but nobody on the roster.
func (d Defaults) EmptyWeek() WeekData {
	w := WeekData{
		Dates:    make(map[Day]string, len(d.Days)),
		Labels:   map[RateKey]string{RateBase: "A", RateSolo: "B", RateSaturday: "C"},
		Leaders:  map[PersonID]bool{},
		Schedule: map[PersonID]PersonSchedule{},
		Rates:    map[PersonID]RateTable{},
		Bonuses:  map[PersonID]BonusConfig{},
	}
	for _, day := range d.Days {
		w.Dates[day] = ""
	}
	return w
}

// NewWorkbook returns a workbook of empty weeks.
func (d Defaults) NewWorkbook() *Workbook {
	weeks := d.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	wb := &Workbook{Title: DefaultTitle, Days: append([]Day(nil), d.Days...)}
	for i := 0; i < weeks; i++ {
		wb.Weeks = append(wb.Weeks, d.EmptyWeek())
	}
	return wb
}

// SampleWeek is the shop's standard week: one leader and three employees.
// It only fills days that exist in d.Days.
func (d Defaults) SampleWeek() WeekData {
	w := d.EmptyWeek()

	times := map[PersonID][6][2]string{
		"Kasia":    {{"6:20", "12:15"}, {"16:25", "21:45"}, {"6:20", "12:15"}, {"6:20", "12:15"}, {"6:20", "12:15"}, {"6:20", "12:15"}},
		"Ola":      {{"10:40", "15:00"}, {"8:40", "19:35"}, {"10:40", "15:00"}, {"10:40", "15:00"}, {"10:40", "15:00"}, {"", ""}},
		"Grzesiek": {{"12:00", "21:45"}, {"6:20", "15:25"}, {"12:00", "21:45"}, {"12:00", "21:45"}, {"12:00", "21:45"}, {"12:00", "21:45"}},
	}

	w.People = []PersonID{"Leader", "Kasia", "Ola", "Grzesiek"}
	w.Leaders["Leader"] = true
	w.Schedule["Leader"] = EmptySchedule(d.Days)

	for _, p := range w.People[1:] {
		s := make(PersonSchedule, len(d.Days))
		for i, day := range d.Days {
			if i < len(times[p]) {
				s[day] = WorkingShift(times[p][i][0], times[p][i][1])
			} else {
				s[day] = Shift{Kind: ShiftWorking}
			}
		}
		w.Schedule[p] = s
		w.Rates[p] = d.Rates
		w.Bonuses[p] = NoBonus()
	}
	w.Rates["Grzesiek"] = Rates(28, 7, 2)
	return w
}

// SampleWorkbook returns a workbook whose every week is SampleWeek.
func (d Defaults) SampleWorkbook() *Workbook {
	wb := d.NewWorkbook()
	for i := range wb.Weeks {
		wb.Weeks[i] = d.SampleWeek()
	}
	return wb
}
