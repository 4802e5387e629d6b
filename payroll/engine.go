package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE - Per-person, per-week payment calculation
// =============================================================================

// DefaultDays is the conventional week: Monday to Saturday, no Sunday.
var DefaultDays = []Day{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DefaultSaturday is the day key whose hours earn the Saturday rate.
const DefaultSaturday Day = "Sat"

var sixty = decimal.NewFromInt(MinutesPerHour)

// Engine computes payments over a configured ordered day set.
// It holds no state besides configuration and is safe to share.
type Engine struct {
	Days     []Day
	Saturday Day
}

// NewEngine creates an engine for the given days. saturday may be empty if
// the week has no Saturday-rated day.
func NewEngine(days []Day, saturday Day) *Engine {
	return &Engine{Days: append([]Day(nil), days...), Saturday: saturday}
}

// DefaultEngine returns an engine for Mon..Sat.
func DefaultEngine() *Engine {
	return NewEngine(DefaultDays, DefaultSaturday)
}

// HasDay reports whether d is one of the engine's days.
func (e *Engine) HasDay(d Day) bool {
	for _, day := range e.Days {
		if day == d {
			return true
		}
	}
	return false
}

// ComputePayment returns the payment of person p for week w. It returns
// false for leaders, for people not on the roster and for people without a
// rate table.
func (e *Engine) ComputePayment(w *WeekData, p PersonID) (PaymentResult, bool) {
	days, ok := w.Schedule[p]
	if !ok || w.IsLeader(p) {
		return PaymentResult{}, false
	}
	rates, ok := w.Rates[p]
	if !ok {
		return PaymentResult{}, false
	}
	bonus := w.Bonuses[p]

	var mins Minutes
	for _, day := range e.Days {
		iv, ok := ParseShift(days[day])
		if !ok {
			continue
		}
		worked := iv.Minutes()
		mins.Total += worked
		if day == e.Saturday {
			mins.Saturday = worked
		}
		mins.Solo += SoloMinutes(iv, othersOnDay(w, p, day))
	}

	pay := Payments{
		Base:     payFor(mins.Total, rates.A),
		Solo:     payFor(mins.Solo, rates.B),
		Saturday: payFor(mins.Saturday, rates.C),
		Bonus:    bonus.Pay(),
	}
	pay.Total = pay.Base.Add(pay.Solo).Add(pay.Saturday).Add(pay.Bonus)

	return PaymentResult{
		Person:   p,
		Minutes:  mins,
		Hours:    hoursOf(mins),
		Payments: pay,
		Rates:    rates,
		Bonus:    bonus,
	}, true
}

// ComputeAll returns the payment of every payable person in roster order.
func (e *Engine) ComputeAll(w *WeekData) []PaymentResult {
	var out []PaymentResult
	for _, p := range w.Roster() {
		if r, ok := e.ComputePayment(w, p); ok {
			out = append(out, r)
		}
	}
	return out
}

// ComputeWeekTotals sums the payments of every payable person of the week.
func (e *Engine) ComputeWeekTotals(w *WeekData) WeekTotals {
	return SumResults(e.ComputeAll(w))
}

// SumResults folds results into totals. Hours are derived from the summed
// minutes with a single division. Payments are the sum of the per-person
// amounts, so the total always equals the sum of the rows. Addition is
// exact, so the order of results does not matter.
func SumResults(results []PaymentResult) WeekTotals {
	t := WeekTotals{Payments: zeroPayments()}
	for _, r := range results {
		t.People++
		t.Minutes.Total += r.Minutes.Total
		t.Minutes.Solo += r.Minutes.Solo
		t.Minutes.Saturday += r.Minutes.Saturday
		t.Payments = t.Payments.Add(r.Payments)
	}
	t.Hours = hoursOf(t.Minutes)
	return t
}

// MinutesToHours converts a minute count to decimal hours. Counts that are
// not a multiple of 3 minutes give a repeating fraction, which is rounded to
// decimal.DivisionPrecision (16) places.
func MinutesToHours(m int) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(sixty)
}

func hoursOf(m Minutes) Hours {
	return Hours{
		Total:    MinutesToHours(m.Total),
		Solo:     MinutesToHours(m.Solo),
		Saturday: MinutesToHours(m.Saturday),
	}
}

// payFor multiplies before dividing so whole-hour and quarter-hour amounts
// stay exact. Other amounts are rounded to decimal.DivisionPrecision places.
func payFor(minutes int, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(rate).Div(sixty)
}
