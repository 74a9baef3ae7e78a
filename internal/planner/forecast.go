package planner

import (
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// Forecast simulates the next days of the plan assuming every scheduled
// portion is completed on its day. It stops early once the scope is done.
func Forecast(plan model.Plan, today time.Time, days int, policy model.Policy) []model.DayTask {
	today = calendar.Day(today)
	if days <= 0 {
		return nil
	}
	tasks := make([]model.DayTask, 0, days)
	sim := clonePlan(plan)
	for i := 0; i < days; i++ {
		date := calendar.AddDays(today, i)
		if sim.Finished() {
			break
		}
		if i == 0 && calendar.SameDay(sim.LastCompletedDate, date) && sim.CompletedToday != nil {
			tasks = append(tasks, completedTask(sim, date, policy))
			continue
		}
		task := taskFor(sim, date, policy)
		tasks = append(tasks, task)
		if task.NewPages != nil {
			sim = applyCompletion(sim, task)
		}
	}
	return tasks
}

// ProjectPlan projects the landing date of a plan as seen on today. Once
// today has activity recorded the projection starts tomorrow. A finished
// plan lands on its last completion. Backlog is folded in for capacity
// plans only; a deadline plan's pointer already holds its missed pages.
func ProjectPlan(plan model.Plan, today time.Time) (Projection, error) {
	today = calendar.Day(today)
	if plan.Finished() {
		date := calendar.Day(plan.LastCompletedDate)
		if date.IsZero() {
			date = today
		}
		return Projection{Date: date}, nil
	}
	start := today
	if calendar.SameDay(plan.LastActivityDate, today) {
		start = calendar.AddDays(today, 1)
	}
	backlog := plan.BacklogPages
	if plan.Strategy == model.StrategyDeadline {
		backlog = 0
	}
	return ProjectEndDate(plan.CurrentPage, plan.EndPage, baseRate(plan, start), plan.OffDays, backlog, start)
}
