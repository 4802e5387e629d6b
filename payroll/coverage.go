package payroll

// SoloMinutes returns how many minutes of subject are not covered by any of
// others. A minute covered by two others counts once: the covered part is
// the union of subject ∩ other, not the sum.
func SoloMinutes(subject Interval, others []Interval) int {
	if subject.IsEmpty() {
		return 0
	}
	clipped := make([]Interval, 0, len(others))
	for _, o := range others {
		if iv, ok := subject.Intersect(o); ok {
			clipped = append(clipped, iv)
		}
	}
	covered := 0
	for _, iv := range mergeIntervals(clipped) {
		covered += iv.Minutes()
	}
	return subject.Minutes() - covered
}

// othersOnDay collects the same-day intervals of every non-leader person
// except subject. Days off and unparsable shifts are left out.
func othersOnDay(w *WeekData, subject PersonID, day Day) []Interval {
	var out []Interval
	for p, days := range w.Schedule {
		if p == subject || w.IsLeader(p) {
			continue
		}
		if iv, ok := ParseShift(days[day]); ok {
			out = append(out, iv)
		}
	}
	return out
}
