package payroll

import (
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// CLOCK - Wall-clock time of day with minute resolution
// =============================================================================

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

// ParseClock converts "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(mm, ":") {
		return 0, &TimeParseError{Value: s, Reason: "expected H:MM"}
	}
	if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, &TimeParseError{Value: s, Reason: "expected H:MM"}
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, &TimeParseError{Value: s, Reason: "hour must be 0-23"}
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, &TimeParseError{Value: s, Reason: "minute must be 00-59"}
	}
	return h*MinutesPerHour + m, nil
}

// allDigits reports whether s is made of ASCII digits only. strconv.Atoi
// alone would accept a sign.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	h, m := minute/MinutesPerHour, minute%MinutesPerHour
	return twoDigits(h) + ":" + twoDigits(m)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// TimeOptions returns the selectable shift times from 05:00 to 22:30 in
// 15 minute steps.
func TimeOptions() []string {
	var out []string
	for m := 5 * MinutesPerHour; m <= 22*MinutesPerHour+30; m += 15 {
		out = append(out, FormatClock(m))
	}
	return out
}

// =============================================================================
// INTERVAL - Half-open [Start, End) in minutes of day
// =============================================================================

// Interval is a half-open minute range. End may be <= Start, in which case
// the interval is empty.
type Interval struct {
	Start int
	End   int
}

// Minutes returns the length of the interval, zero when inverted.
func (iv Interval) Minutes() int {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

func (iv Interval) IsEmpty() bool { return iv.End <= iv.Start }

// Contains returns true if minute lies in [Start, End).
func (iv Interval) Contains(minute int) bool {
	return minute >= iv.Start && minute < iv.End
}

// Intersect returns the overlap of two intervals.
func (iv Interval) Intersect(o Interval) (Interval, bool) {
	out := Interval{Start: max(iv.Start, o.Start), End: min(iv.End, o.End)}
	if out.IsEmpty() {
		return Interval{}, false
	}
	return out, true
}

func (iv Interval) String() string {
	return "[" + FormatClock(iv.Start) + ", " + FormatClock(iv.End) + ")"
}

// mergeIntervals sorts and merges overlapping or touching intervals.
// Empty intervals are dropped.
func mergeIntervals(in []Interval) []Interval {
	var ivs []Interval
	for _, iv := range in {
		if !iv.IsEmpty() {
			ivs = append(ivs, iv)
		}
	}
	if len(ivs) == 0 {
		return nil
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

	merged := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			last.End = max(last.End, iv.End)
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// =============================================================================
// SHIFT PARSING
// =============================================================================

// ParseShift returns the minute interval of a working shift. It returns
// false for a day off, a missing start or end, an unknown kind or a
// malformed time. An inverted interval is returned unchanged.
func ParseShift(s Shift) (Interval, bool) {
	if s.Kind != ShiftWorking {
		return Interval{}, false
	}
	if s.Start == "" || s.End == "" {
		return Interval{}, false
	}
	start, err := ParseClock(s.Start)
	if err != nil {
		return Interval{}, false
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Validate reports malformed times and inverted shifts. Day off, empty and
// half-filled shifts are valid.
func (s Shift) Validate() error {
	if s.Kind != ShiftWorking || s.Start == "" || s.End == "" {
		return nil
	}
	start, err := ParseClock(s.Start)
	if err != nil {
		return err
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return err
	}
	if end <= start {
		return ErrInvertedShift
	}
	return nil
}

func sortPersons(ps []PersonID) {
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
}
