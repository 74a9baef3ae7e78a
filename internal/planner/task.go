package planner

import (
	"math"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// TodayTask derives what should be done on today from the plan pointers.
// Once today's portion is recorded the task reports the completed range
// with IsDone set.
func TodayTask(plan model.Plan, today time.Time, policy model.Policy) model.DayTask {
	today = calendar.Day(today)
	if plan.Finished() {
		return model.DayTask{Date: today, IsDone: true}
	}
	if calendar.SameDay(plan.LastCompletedDate, today) && plan.CompletedToday != nil {
		return completedTask(plan, today, policy)
	}
	return taskFor(plan, today, policy)
}

// PreviewNext derives the portion of the next working day starting at the
// current page, so it can be done ahead of time. The plan is not changed;
// confirm with CompleteDay(plan, today, true, policy).
func PreviewNext(plan model.Plan, today time.Time, policy model.Policy) model.DayTask {
	today = calendar.Day(today)
	if plan.Finished() {
		return model.DayTask{Date: calendar.AddDays(today, 1), IsDone: true}
	}
	return taskFor(plan, nextWorkingDay(plan, today), policy)
}

// DailyTarget returns the rate in pages per day that applies on date. A
// capacity plan in debt adds the backlog surcharge; a deadline plan's live
// rate already covers the missed pages.
func DailyTarget(plan model.Plan, date time.Time, policy model.Policy) float64 {
	base := baseRate(plan, date)
	if plan.BacklogPages <= 0 || plan.Strategy == model.StrategyDeadline {
		return base
	}
	policy = normalizePolicy(policy)
	surcharge := math.Max(policy.MinSurcharge, plan.BacklogPages/policy.BacklogSpreadDays)
	return ceilStep(base + surcharge)
}

func taskFor(plan model.Plan, date time.Time, policy model.Policy) model.DayTask {
	target := DailyTarget(plan, date, policy)
	task := model.DayTask{
		Date:        date,
		DailyTarget: target,
	}
	off := calendar.NewWeekdaySet(plan.OffDays)
	task.IsOffDay = off.Contains(date) && plan.BacklogPages <= 0
	if !task.IsOffDay {
		end := plan.CurrentPage + pageSpan(target) - 1
		if end > plan.EndPage {
			end = plan.EndPage
		}
		task.NewPages = &model.PageRange{Start: plan.CurrentPage, End: end}
		task.IsBacklog = plan.BacklogPages > 0
	}
	task.ReviewPages = reviewRange(plan, plan.CurrentPage, target)
	return task
}

func completedTask(plan model.Plan, today time.Time, policy model.Policy) model.DayTask {
	done := *plan.CompletedToday
	target := DailyTarget(plan, today, policy)
	return model.DayTask{
		Date:        today,
		NewPages:    &done,
		ReviewPages: reviewRange(plan, done.Start, target),
		IsBacklog:   plan.BacklogPages > 0,
		IsDone:      true,
		DailyTarget: target,
	}
}

// reviewRange covers the pages completed just before fromPage, ratio pages
// for every new page, clamped at the start of the scope.
func reviewRange(plan model.Plan, fromPage int, target float64) *model.PageRange {
	if !plan.ReviewEnabled {
		return nil
	}
	ratio := plan.ReviewRatio
	if ratio < 1 {
		ratio = 1
	}
	end := fromPage - 1
	if end < plan.StartPage {
		return nil
	}
	count := int(math.Ceil(target*float64(ratio) - epsilon))
	if count < 1 {
		count = 1
	}
	start := end - count + 1
	if start < plan.StartPage {
		start = plan.StartPage
	}
	return &model.PageRange{Start: start, End: end}
}

func baseRate(plan model.Plan, date time.Time) float64 {
	if plan.Strategy == model.StrategyDeadline {
		rate := RequiredRate(plan.CurrentPage, plan.EndPage, plan.TargetDate, plan.OffDays, date)
		if rate < minRate {
			return minRate
		}
		return rate
	}
	if plan.PagesPerDay < minRate {
		return minRate
	}
	return plan.PagesPerDay
}

// nextWorkingDay returns the first date after today that schedules new
// pages. In debt every day schedules pages.
func nextWorkingDay(plan model.Plan, today time.Time) time.Time {
	next := calendar.AddDays(today, 1)
	if plan.BacklogPages > 0 {
		return next
	}
	off := calendar.NewWeekdaySet(plan.OffDays)
	if off.Full() {
		return next
	}
	for off.Contains(next) {
		next = calendar.AddDays(next, 1)
	}
	return next
}

func normalizePolicy(p model.Policy) model.Policy {
	def := model.DefaultPolicy()
	if p.BacklogSpreadDays <= 0 {
		p.BacklogSpreadDays = def.BacklogSpreadDays
	}
	if p.MinSurcharge <= 0 {
		p.MinSurcharge = def.MinSurcharge
	}
	return p
}
