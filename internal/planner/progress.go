package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// CompleteDay marks today's portion as memorized, or the next working
// day's portion when advance is set. The input plan is not mutated.
//
// A finished plan is returned unchanged with a nil error. A regular
// completion on a date that already has a completion or an emergency
// returns ErrAlreadyRecorded, and a rest day without advance returns
// ErrRestDay; the plan is unchanged in both cases.
func CompleteDay(plan model.Plan, today time.Time, advance bool, policy model.Policy) (model.Plan, error) {
	today = calendar.Day(today)
	if plan.Finished() {
		return plan, nil
	}
	if !advance && calendar.SameDay(plan.LastActivityDate, today) {
		return plan, ErrAlreadyRecorded
	}

	var task model.DayTask
	if advance {
		task = PreviewNext(plan, today, policy)
	} else {
		task = taskFor(plan, today, policy)
	}
	if task.NewPages == nil {
		return plan, ErrRestDay
	}

	next := applyCompletion(plan, task)
	next.Streak = nextStreak(plan, today)
	next.LastActivityDate = today
	if calendar.SameDay(plan.LastCompletedDate, today) && plan.CompletedToday != nil {
		next.CompletedToday = &model.PageRange{Start: plan.CompletedToday.Start, End: task.NewPages.End}
	} else {
		next.CompletedToday = &model.PageRange{Start: task.NewPages.Start, End: task.NewPages.End}
	}
	next.LastCompletedDate = today
	next.TotalDaysElapsed = daysElapsed(plan, today)
	return next, nil
}

// HandleEmergency records that today's new pages will not be done. Extend
// lets the end date slip; compensate adds the scheduled pages to the
// backlog. Either way the streak resets. A second emergency, or one after a
// completion on the same date, returns ErrAlreadyRecorded.
func HandleEmergency(plan model.Plan, today time.Time, mode model.EmergencyMode, policy model.Policy) (model.Plan, error) {
	today = calendar.Day(today)
	if mode != model.EmergencyExtend && mode != model.EmergencyCompensate {
		return plan, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if plan.Finished() {
		return plan, nil
	}
	if calendar.SameDay(plan.LastActivityDate, today) {
		return plan, ErrAlreadyRecorded
	}
	task := taskFor(plan, today, policy)
	if task.NewPages == nil {
		return plan, ErrRestDay
	}

	next := clonePlan(plan)
	if mode == model.EmergencyCompensate {
		next.BacklogPages += float64(task.NewPageCount())
	}
	next.Streak = 0
	next.LastActivityDate = today
	next.TotalDaysElapsed = daysElapsed(plan, today)
	return next, nil
}

// applyCompletion advances the pointer past the task and pays down the
// backlog. A capacity plan repays what was produced beyond the base rate.
// A deadline plan already spreads the missed pages over its live rate, so
// every produced page counts against the backlog.
func applyCompletion(plan model.Plan, task model.DayTask) model.Plan {
	next := clonePlan(plan)
	produced := task.NewPages.Len()
	next.CurrentPage = task.NewPages.End + 1
	if next.CurrentPage > next.EndPage+1 {
		next.CurrentPage = next.EndPage + 1
	}
	next.CompletedPages = next.CurrentPage - next.StartPage
	if next.BacklogPages > 0 {
		repaid := float64(produced)
		if plan.Strategy != model.StrategyDeadline {
			repaid = math.Max(0, repaid-baseRate(plan, task.Date))
		}
		next.BacklogPages = math.Max(0, next.BacklogPages-repaid)
	}
	if next.Finished() {
		next.BacklogPages = 0
	}
	return next
}

// nextStreak counts at most one step per date. Off-days between two
// activities do not break the streak.
func nextStreak(plan model.Plan, today time.Time) int {
	last := plan.LastActivityDate
	switch {
	case last.IsZero():
		return 1
	case calendar.SameDay(last, today):
		return plan.Streak
	case onlyOffDaysBetween(plan, last, today):
		return plan.Streak + 1
	default:
		return 1
	}
}

func onlyOffDaysBetween(plan model.Plan, last, today time.Time) bool {
	gap := calendar.DaysBetween(last, today)
	if gap < 1 {
		return false
	}
	off := calendar.NewWeekdaySet(plan.OffDays)
	for i := 1; i < gap; i++ {
		if !off.Contains(calendar.AddDays(last, i)) {
			return false
		}
	}
	return true
}

func daysElapsed(plan model.Plan, today time.Time) int {
	if plan.StartDate.IsZero() {
		return plan.TotalDaysElapsed
	}
	n := calendar.DaysBetween(plan.StartDate, today) + 1
	if n < plan.TotalDaysElapsed {
		return plan.TotalDaysElapsed
	}
	return n
}

func clonePlan(plan model.Plan) model.Plan {
	next := plan
	next.OffDays = append([]int(nil), plan.OffDays...)
	if plan.CompletedToday != nil {
		r := *plan.CompletedToday
		next.CompletedToday = &r
	}
	return next
}
