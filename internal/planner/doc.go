// Package planner implements the memorization scheduling engine.
//
// Every function is pure over (plan, today): the wall clock is never read
// and no state survives between calls. Callers load a plan, call an
// operation, and persist the returned copy.
//
//	plan, err := planner.NewPlan(input, ownerID, today)
//	task := planner.TodayTask(plan, today, model.DefaultPolicy())
//	plan, err = planner.CompleteDay(plan, today, false, model.DefaultPolicy())
package planner
