package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is a set of weekdays on which no new work is scheduled.
type WeekdaySet uint8

const allWeekdays WeekdaySet = 1<<7 - 1

// NewWeekdaySet builds a set from weekday indices (0 = Sunday). Indices
// outside 0..6 are ignored.
func NewWeekdaySet(days []int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether the weekday is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Contains reports whether the date's weekday is in the set.
func (s WeekdaySet) Contains(t time.Time) bool {
	return s.Has(Day(t).Weekday())
}

// Full reports whether every weekday is in the set.
func (s WeekdaySet) Full() bool {
	return s&allWeekdays == allWeekdays
}

// Len returns the number of weekdays in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Indices returns the sorted weekday indices in the set.
func (s WeekdaySet) Indices() []int {
	out := []int{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, int(d))
		}
	}
	return out
}

// String lists the weekday short names, e.g. "Fri,Sat".
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, idx := range s.Indices() {
		names = append(names, time.Weekday(idx).String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseWeekdays parses a comma-separated list of weekday names or indices,
// e.g. "fri", "5,6" or "Friday,sat". Duplicates collapse.
func ParseWeekdays(value string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		idx, err := parseWeekday(part)
		if err != nil {
			return nil, err
		}
		seen[idx] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func parseWeekday(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday index %d out of range 0-6", n)
		}
		return n, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if value == name || value == name[:3] {
			return int(d), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}
