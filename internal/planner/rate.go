package planner

import (
	"math"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
)

const (
	// rateStep is the granularity daily rates are rounded up to.
	rateStep = 0.5
	// minRate is the clamp applied to non-positive rates.
	minRate = 0.5
	epsilon = 1e-9
)

// Projection is the landing date of a schedule.
type Projection struct {
	Date         time.Time
	DaysNeeded   int
	CalendarDays int
}

// ProjectEndDate walks forward from start, skipping off-days, until enough
// working days have been consumed to produce the remaining pages plus the
// backlog at pagesPerDay. Rates below 0.5 are clamped.
func ProjectEndDate(fromPage, toPage int, pagesPerDay float64, offDays []int, backlog float64, start time.Time) (Projection, error) {
	start = calendar.Day(start)
	remaining := toPage - fromPage + 1
	if remaining <= 0 {
		return Projection{Date: start}, nil
	}
	off := calendar.NewWeekdaySet(offDays)
	if off.Full() {
		return Projection{}, ErrNoWorkingDays
	}
	if pagesPerDay < minRate {
		pagesPerDay = minRate
	}
	if backlog < 0 {
		backlog = 0
	}

	days := int(math.Ceil((float64(remaining)+backlog)/pagesPerDay - epsilon))
	if days < 1 {
		days = 1
	}
	day := start
	worked, calendarDays := 0, 0
	for {
		calendarDays++
		if !off.Contains(day) {
			worked++
			if worked == days {
				break
			}
		}
		day = calendar.AddDays(day, 1)
	}
	return Projection{Date: day, DaysNeeded: days, CalendarDays: calendarDays}, nil
}

// RequiredRate returns the smallest rate, in 0.5-page steps, that finishes
// fromPage..toPage by targetDate. When no working day is left the whole
// remainder is due at once.
func RequiredRate(fromPage, toPage int, targetDate time.Time, offDays []int, today time.Time) float64 {
	remaining := toPage - fromPage + 1
	if remaining <= 0 {
		return 0
	}
	workingDays := WorkingDays(today, targetDate, offDays)
	if workingDays <= 0 {
		return float64(remaining)
	}
	return ceilStep(float64(remaining) / float64(workingDays))
}

// WorkingDays counts days in [from, to] that are not off-days.
func WorkingDays(from, to time.Time, offDays []int) int {
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		return 0
	}
	off := calendar.NewWeekdaySet(offDays)
	if off.Full() {
		return 0
	}
	total := calendar.DaysBetween(from, to) + 1
	weeks := total / 7
	count := weeks * (7 - off.Len())
	day := calendar.AddDays(from, weeks*7)
	for i := weeks * 7; i < total; i++ {
		if !off.Contains(day) {
			count++
		}
		day = calendar.AddDays(day, 1)
	}
	return count
}

func ceilStep(x float64) float64 {
	return math.Ceil(x/rateStep-epsilon) * rateStep
}

func pageSpan(rate float64) int {
	span := int(math.Ceil(rate - epsilon))
	if span < 1 {
		span = 1
	}
	return span
}
