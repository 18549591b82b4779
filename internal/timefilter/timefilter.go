// Package timefilter implements the cascading year → quarter → month → week
// filter used to scope history browsing. Everything here is a pure function
// of an explicit clock value.
package timefilter

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// All marks a level that is not narrowed.
const All = -1

// DefaultYearsBack is the number of years offered when no other value is configured.
const DefaultYearsBack = 3

// ErrInconsistent is returned by Validate when a state cannot be produced by
// the cascade for the given clock.
var ErrInconsistent = errors.New("timefilter: inconsistent filter state")

// State is the current filter selection. Month is 0-indexed. Page is 1-based.
type State struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Month   int `json:"month"`
	Week    int `json:"week"`
	Page    int `json:"page"`
}

// NewState returns the initial selection: the current year, every lower
// level unset, first page.
func NewState(now time.Time) State {
	return State{Year: now.Year(), Quarter: All, Month: All, Week: All, Page: 1}
}

// SetYear selects a year and resets every lower level and the page.
func (s *State) SetYear(year int) {
	s.Year = year
	s.Quarter, s.Month, s.Week = All, All, All
	s.Page = 1
}

// SetQuarter selects a quarter and resets month, week and page.
func (s *State) SetQuarter(quarter int) {
	s.Quarter = quarter
	s.Month, s.Week = All, All
	s.Page = 1
}

// SetMonth selects a 0-indexed month and resets week and page.
func (s *State) SetMonth(month int) {
	s.Month = month
	s.Week = All
	s.Page = 1
}

// SetWeek selects a week number and resets the page.
func (s *State) SetWeek(week int) {
	s.Week = week
	s.Page = 1
}

// SetPage moves to page, never below 1.
func (s *State) SetPage(page int) {
	s.Page = max(page, 1)
}

// Effective returns s with every level below an unset ancestor cleared, so
// stale descendants are never evaluated.
func (s State) Effective() State {
	if s.Year == All {
		s.Quarter = All
	}
	if s.Quarter == All {
		s.Month = All
	}
	if s.Month == All {
		s.Week = All
	}
	s.Page = max(s.Page, 1)
	return s
}

// WeekOption is one selectable week.
type WeekOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options are the selectable values at each level. A level whose parent is
// unset has no options.
type Options struct {
	Years    []int        `json:"years"`
	Quarters []int        `json:"quarters"`
	Months   []int        `json:"months"`
	Weeks    []WeekOption `json:"weeks"`
}

// Compute returns the options for s at time now.
func Compute(now time.Time, s State, yearsBack int) Options {
	s = s.Effective()
	opts := Options{Years: Years(now, yearsBack)}
	if s.Year == All {
		return opts
	}
	opts.Quarters = Quarters(now, s.Year)
	if s.Quarter == All {
		return opts
	}
	opts.Months = Months(now, s.Year, s.Quarter)
	if s.Month == All {
		return opts
	}
	opts.Weeks = Weeks(now, s.Year, s.Month)
	return opts
}

// Years returns the current year followed by the yearsBack-1 previous ones.
func Years(now time.Time, yearsBack int) []int {
	if yearsBack < 1 {
		yearsBack = DefaultYearsBack
	}
	out := make([]int, yearsBack)
	for i := range out {
		out[i] = now.Year() - i
	}
	return out
}

// Quarter returns the 1-based quarter of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// Quarters returns 1..current quarter for the current year, 1..4 for a past
// year and nothing for a future one.
func Quarters(now time.Time, year int) []int {
	last := 4
	switch {
	case year > now.Year():
		return nil
	case year == now.Year():
		last = Quarter(now)
	}
	out := make([]int, 0, last)
	for q := 1; q <= last; q++ {
		out = append(out, q)
	}
	return out
}

// Months returns the 0-indexed months of quarter, truncated at now's month
// when year and quarter are current.
func Months(now time.Time, year, quarter int) []int {
	if quarter < 1 || quarter > 4 || !slices.Contains(Quarters(now, year), quarter) {
		return nil
	}
	first := (quarter - 1) * 3
	out := make([]int, 0, 3)
	for m := first; m < first+3; m++ {
		if year == now.Year() && quarter == Quarter(now) && m > int(now.Month())-1 {
			break
		}
		out = append(out, m)
	}
	return out
}

// Weeks enumerates every day of the 0-indexed month and returns one option
// per distinct ISO 8601 week number, in the order first seen. Days of early
// January can belong to week 52 or 53 of the previous year, and the value
// sent to the analysis service is that ISO number. The label spans the
// Monday-to-Sunday week of the first day seen. In the current month days
// after now are not enumerated.
func Weeks(now time.Time, year, month int) []WeekOption {
	if month < 0 || month > 11 {
		return nil
	}
	loc := now.Location()
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if first.After(today) {
		return nil
	}
	seen := make(map[int]bool)
	var out []WeekOption
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if d.After(today) {
			break
		}
		_, n := d.ISOWeek()
		if seen[n] {
			continue
		}
		seen[n] = true
		start := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
		end := start.AddDate(0, 0, 6)
		out = append(out, WeekOption{
			Label: fmt.Sprintf("Week %d: %s - %s", n, start.Format("Jan 2"), end.Format("Jan 2")),
			Value: strconv.Itoa(n),
		})
	}
	return out
}

// Validate reports whether s could have been produced by the cascade at now.
func Validate(now time.Time, s State) error {
	if s.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrInconsistent, s.Page)
	}
	if s.Year == All {
		if s.Quarter != All || s.Month != All || s.Week != All {
			return fmt.Errorf("%w: narrower level set without a year", ErrInconsistent)
		}
		return nil
	}
	if s.Year > now.Year() {
		return fmt.Errorf("%w: year %d is in the future", ErrInconsistent, s.Year)
	}
	if s.Quarter == All {
		if s.Month != All || s.Week != All {
			return fmt.Errorf("%w: month or week set without a quarter", ErrInconsistent)
		}
		return nil
	}
	if !slices.Contains(Quarters(now, s.Year), s.Quarter) {
		return fmt.Errorf("%w: quarter %d not offered for %d", ErrInconsistent, s.Quarter, s.Year)
	}
	if s.Month == All {
		if s.Week != All {
			return fmt.Errorf("%w: week set without a month", ErrInconsistent)
		}
		return nil
	}
	if !slices.Contains(Months(now, s.Year, s.Quarter), s.Month) {
		return fmt.Errorf("%w: month %d not offered for Q%d %d", ErrInconsistent, s.Month, s.Quarter, s.Year)
	}
	if s.Week == All {
		return nil
	}
	value := strconv.Itoa(s.Week)
	if !slices.ContainsFunc(Weeks(now, s.Year, s.Month), func(w WeekOption) bool { return w.Value == value }) {
		return fmt.Errorf("%w: week %d not offered for month %d of %d", ErrInconsistent, s.Week, s.Month, s.Year)
	}
	return nil
}

// ParseLevel parses a level value; "" and "all" (any case) mean All.
func ParseLevel(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return All, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("timefilter: invalid level %q", v)
	}
	return n, nil
}

// FormatLevel is the inverse of ParseLevel.
func FormatLevel(n int) string {
	if n == All {
		return "all"
	}
	return strconv.Itoa(n)
}
