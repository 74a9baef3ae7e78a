package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// wednesday is 2026-10-14.
var wednesday = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return calendar.AddDays(wednesday, offset)
}

func capacityPlan(start, end int, perDay float64, offDays ...int) model.Plan {
	return model.Plan{
		ID:          "plan-1",
		OwnerID:     "owner-1",
		StartDate:   calendar.Day(wednesday),
		StartPage:   start,
		EndPage:     end,
		Strategy:    model.StrategyCapacity,
		PagesPerDay: perDay,
		OffDays:     offDays,
		CurrentPage: start,
	}
}

func mustComplete(t *testing.T, plan model.Plan, today time.Time, advance bool) model.Plan {
	t.Helper()
	next, err := CompleteDay(plan, today, advance, model.DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, CheckTransition(plan, next))
	return next
}

func TestTodayTaskFixedCapacity(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)

	task := TodayTask(plan, wednesday, model.DefaultPolicy())
	require.NotNil(t, task.NewPages)
	assert.Equal(t, model.PageRange{Start: 1, End: 2}, *task.NewPages)
	assert.False(t, task.IsOffDay)
	assert.False(t, task.IsDone)
	assert.Nil(t, task.ReviewPages)

	friday := day(2)
	require.Equal(t, time.Friday, friday.Weekday())
	task = TodayTask(plan, friday, model.DefaultPolicy())
	assert.True(t, task.IsOffDay)
	assert.Nil(t, task.NewPages)
}

func TestTodayTaskBacklogOverridesOffDay(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)
	plan.BacklogPages = 3

	task := TodayTask(plan, day(2), model.DefaultPolicy())
	assert.False(t, task.IsOffDay)
	assert.True(t, task.IsBacklog)
	require.NotNil(t, task.NewPages)
	// 2 + max(0.5, 3/7) = 2.5 pages, rounded up to a 3 page span.
	assert.Equal(t, 2.5, task.DailyTarget)
	assert.Equal(t, model.PageRange{Start: 1, End: 3}, *task.NewPages)
}

func TestTodayTaskReviewRange(t *testing.T) {
	plan := capacityPlan(1, 604, 1)
	plan.ReviewEnabled = true
	plan.ReviewRatio = 5
	plan.CurrentPage = 10
	plan.CompletedPages = 9

	task := TodayTask(plan, wednesday, model.DefaultPolicy())
	require.NotNil(t, task.ReviewPages)
	assert.Equal(t, model.PageRange{Start: 5, End: 9}, *task.ReviewPages)

	plan.CurrentPage = 3
	plan.CompletedPages = 2
	task = TodayTask(plan, wednesday, model.DefaultPolicy())
	require.NotNil(t, task.ReviewPages)
	assert.Equal(t, model.PageRange{Start: 1, End: 2}, *task.ReviewPages)

	plan.CurrentPage = 1
	plan.CompletedPages = 0
	task = TodayTask(plan, wednesday, model.DefaultPolicy())
	assert.Nil(t, task.ReviewPages)
}

func TestTodayTaskReviewOnOffDay(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 3)
	plan.ReviewEnabled = true
	plan.ReviewRatio = 2
	plan.CurrentPage = 11
	plan.CompletedPages = 10

	task := TodayTask(plan, wednesday, model.DefaultPolicy())
	assert.True(t, task.IsOffDay)
	assert.Nil(t, task.NewPages)
	require.NotNil(t, task.ReviewPages)
	assert.Equal(t, model.PageRange{Start: 7, End: 10}, *task.ReviewPages)
}

func TestTodayTaskClampsToEndPage(t *testing.T) {
	plan := capacityPlan(600, 604, 3)
	plan.CurrentPage = 603
	plan.CompletedPages = 3

	task := TodayTask(plan, wednesday, model.DefaultPolicy())
	require.NotNil(t, task.NewPages)
	assert.Equal(t, model.PageRange{Start: 603, End: 604}, *task.NewPages)
}

func TestTodayTaskDeadlineSelfCorrects(t *testing.T) {
	plan := capacityPlan(1, 20, 0)
	plan.Strategy = model.StrategyDeadline
	plan.TargetDate = day(9)

	task := TodayTask(plan, wednesday, model.DefaultPolicy())
	assert.Equal(t, 2.0, task.DailyTarget)
	require.NotNil(t, task.NewPages)
	assert.Equal(t, model.PageRange{Start: 1, End: 2}, *task.NewPages)

	// Five idle days leave five working days for the same twenty pages.
	task = TodayTask(plan, day(5), model.DefaultPolicy())
	assert.Equal(t, 4.0, task.DailyTarget)
	assert.Equal(t, model.PageRange{Start: 1, End: 4}, *task.NewPages)

	// Past the deadline everything is due at once.
	task = TodayTask(plan, day(12), model.DefaultPolicy())
	assert.Equal(t, model.PageRange{Start: 1, End: 20}, *task.NewPages)
}

func TestCompleteDayAdvancesPointer(t *testing.T) {
	plan := capacityPlan(1, 604, 2)

	next := mustComplete(t, plan, wednesday, false)
	assert.Equal(t, 3, next.CurrentPage)
	assert.Equal(t, 2, next.CompletedPages)
	assert.Equal(t, 1, next.Streak)
	assert.True(t, calendar.SameDay(next.LastActivityDate, wednesday))
	assert.Equal(t, 1, plan.CurrentPage, "input plan must not change")

	task := TodayTask(next, wednesday, model.DefaultPolicy())
	assert.True(t, task.IsDone)
	require.NotNil(t, task.NewPages)
	assert.Equal(t, model.PageRange{Start: 1, End: 2}, *task.NewPages)
}

func TestCompleteDayTwiceIsRejected(t *testing.T) {
	plan := mustComplete(t, capacityPlan(1, 604, 2), wednesday, false)

	again, err := CompleteDay(plan, wednesday, false, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrAlreadyRecorded)
	assert.Equal(t, plan, again)
}

func TestCompleteDayOnRestDay(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)

	_, err := CompleteDay(plan, day(2), false, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrRestDay)
}

func TestCompleteDayFinishesPlan(t *testing.T) {
	plan := capacityPlan(1, 604, 2)
	plan.CurrentPage = 604
	plan.CompletedPages = 603

	next := mustComplete(t, plan, wednesday, false)
	assert.Equal(t, 605, next.CurrentPage)
	assert.Equal(t, 604, next.CompletedPages)

	task := TodayTask(next, day(1), model.DefaultPolicy())
	assert.Nil(t, task.NewPages)
	assert.True(t, task.IsDone)

	done, err := CompleteDay(next, day(1), false, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, next, done)
}

func TestAdvanceDoesTomorrowToday(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)
	thursday := day(1)

	plan = mustComplete(t, plan, thursday, false)
	preview := PreviewNext(plan, thursday, model.DefaultPolicy())
	assert.Equal(t, time.Saturday, preview.Date.Weekday(), "friday is skipped")
	require.NotNil(t, preview.NewPages)
	assert.Equal(t, model.PageRange{Start: 3, End: 4}, *preview.NewPages)
	assert.Equal(t, 3, plan.CurrentPage, "preview does not mutate")

	plan = mustComplete(t, plan, thursday, true)
	assert.Equal(t, 5, plan.CurrentPage)
	assert.Equal(t, 1, plan.Streak, "streak counts once per day")
	require.NotNil(t, plan.CompletedToday)
	assert.Equal(t, model.PageRange{Start: 1, End: 4}, *plan.CompletedToday)

	_, err := CompleteDay(plan, thursday, false, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestAdvanceOnRestDay(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)

	plan = mustComplete(t, plan, day(2), true)
	assert.Equal(t, 3, plan.CurrentPage)
}

func TestStreakSkipsOffDays(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)

	plan = mustComplete(t, plan, day(1), false) // thursday
	plan = mustComplete(t, plan, day(3), false) // saturday, friday is off
	assert.Equal(t, 2, plan.Streak)
	plan = mustComplete(t, plan, day(4), false) // sunday
	assert.Equal(t, 3, plan.Streak)
	plan = mustComplete(t, plan, day(6), false) // tuesday, monday missed
	assert.Equal(t, 1, plan.Streak)
	assert.Equal(t, 7, plan.TotalDaysElapsed)
}

func TestHandleEmergencyExtend(t *testing.T) {
	plan := capacityPlan(1, 604, 2)
	plan.Streak = 4

	next, err := HandleEmergency(plan, wednesday, model.EmergencyExtend, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, plan.CurrentPage, next.CurrentPage)
	assert.Zero(t, next.BacklogPages)
	assert.Zero(t, next.Streak)

	_, err = HandleEmergency(next, wednesday, model.EmergencyCompensate, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestHandleEmergencyCompensate(t *testing.T) {
	plan := capacityPlan(1, 604, 2)

	next, err := HandleEmergency(plan, wednesday, model.EmergencyCompensate, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentPage)
	assert.Equal(t, 2.0, next.BacklogPages)
}

func TestHandleEmergencyGuards(t *testing.T) {
	plan := capacityPlan(1, 604, 2, 5)

	_, err := HandleEmergency(plan, wednesday, model.EmergencyMode("panic"), model.DefaultPolicy())
	require.ErrorIs(t, err, ErrInvalidMode)

	_, err = HandleEmergency(plan, day(2), model.EmergencyExtend, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrRestDay)

	done := mustComplete(t, plan, wednesday, false)
	_, err = HandleEmergency(done, wednesday, model.EmergencyExtend, model.DefaultPolicy())
	require.ErrorIs(t, err, ErrAlreadyRecorded)

	finished := capacityPlan(1, 10, 2)
	finished.CurrentPage = 11
	finished.CompletedPages = 10
	same, err := HandleEmergency(finished, wednesday, model.EmergencyCompensate, model.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, finished, same)
}

func TestCompleteDayAfterEmergency(t *testing.T) {
	for _, mode := range []model.EmergencyMode{model.EmergencyExtend, model.EmergencyCompensate} {
		t.Run(string(mode), func(t *testing.T) {
			plan, err := HandleEmergency(capacityPlan(1, 604, 2), wednesday, mode, model.DefaultPolicy())
			require.NoError(t, err)

			again, err := CompleteDay(plan, wednesday, false, model.DefaultPolicy())
			require.ErrorIs(t, err, ErrAlreadyRecorded)
			assert.Equal(t, plan, again)

			ahead := mustComplete(t, plan, wednesday, true)
			assert.Greater(t, ahead.CurrentPage, plan.CurrentPage, "advance is still allowed")
		})
	}
}

func TestDeadlineBacklogUsesLiveRate(t *testing.T) {
	plan := capacityPlan(1, 20, 0)
	plan.Strategy = model.StrategyDeadline
	plan.TargetDate = day(9)
	policy := model.DefaultPolicy()

	plan, err := HandleEmergency(plan, wednesday, model.EmergencyCompensate, policy)
	require.NoError(t, err)
	require.Equal(t, 2.0, plan.BacklogPages)

	// Twenty pages over nine working days, with no surcharge on top.
	thursday := day(1)
	assert.Equal(t, 2.5, DailyTarget(plan, thursday, policy))
	task := TodayTask(plan, thursday, policy)
	assert.True(t, task.IsBacklog)
	assert.Equal(t, model.PageRange{Start: 1, End: 3}, *task.NewPages)

	proj, err := ProjectPlan(plan, thursday)
	require.NoError(t, err)
	assert.Equal(t, calendar.Format(day(8)), calendar.Format(proj.Date))

	plan = mustComplete(t, plan, thursday, false)
	assert.Zero(t, plan.BacklogPages)
	assert.Equal(t, 4, plan.CurrentPage)
}

func TestBacklogRoundTrip(t *testing.T) {
	plan := capacityPlan(1, 604, 2)
	policy := model.DefaultPolicy()

	added := 0.0
	date := 0
	for ; date < 3; date++ {
		next, err := HandleEmergency(plan, day(date), model.EmergencyCompensate, policy)
		require.NoError(t, err)
		added += next.BacklogPages - plan.BacklogPages
		plan = next
	}
	require.Equal(t, 8.0, plan.BacklogPages)
	require.Equal(t, added, plan.BacklogPages)

	startPage := plan.CurrentPage
	days := 0
	for plan.BacklogPages > 0 {
		require.Less(t, days, 60, "backlog never cleared")
		next := mustComplete(t, plan, day(date), false)
		require.GreaterOrEqual(t, next.BacklogPages, 0.0)
		plan = next
		date++
		days++
	}
	produced := plan.CurrentPage - startPage
	assert.Equal(t, 2*days+int(added), produced)
}

func TestCompletionKeepsInvariants(t *testing.T) {
	plan := capacityPlan(1, 120, 1.5, 5, 6)
	plan.ReviewEnabled = true
	plan.ReviewRatio = 3
	policy := model.DefaultPolicy()

	for i := 0; i < 400 && !plan.Finished(); i++ {
		today := day(i)
		prev := plan
		var err error
		switch {
		case i%11 == 3:
			plan, err = HandleEmergency(plan, today, model.EmergencyCompensate, policy)
		case i%13 == 5:
			plan, err = HandleEmergency(plan, today, model.EmergencyExtend, policy)
		default:
			plan, err = CompleteDay(plan, today, i%9 == 0, policy)
		}
		if err != nil {
			require.ErrorIs(t, err, ErrRestDay)
			require.Equal(t, prev, plan)
			continue
		}
		require.NoError(t, CheckTransition(prev, plan))
		require.GreaterOrEqual(t, plan.CurrentPage, prev.CurrentPage)
		require.LessOrEqual(t, plan.CurrentPage, plan.EndPage+1)
		require.Equal(t, plan.CurrentPage-plan.StartPage, plan.CompletedPages)
	}
	assert.True(t, plan.Finished())
	assert.Zero(t, plan.BacklogPages)
}

func TestForecast(t *testing.T) {
	plan := capacityPlan(1, 10, 2, 5)

	tasks := Forecast(plan, wednesday, 14, model.DefaultPolicy())
	require.Len(t, tasks, 6)
	assert.True(t, tasks[2].IsOffDay)
	last := tasks[len(tasks)-1]
	require.NotNil(t, last.NewPages)
	assert.Equal(t, model.PageRange{Start: 9, End: 10}, *last.NewPages)

	proj, err := ProjectEndDate(1, 10, 2, []int{5}, 0, wednesday)
	require.NoError(t, err)
	assert.True(t, proj.Date.Equal(last.Date))
	assert.Equal(t, 1, plan.CurrentPage)
}

func TestForecastStartsWithCompletedDay(t *testing.T) {
	plan := mustComplete(t, capacityPlan(1, 10, 2), wednesday, false)

	tasks := Forecast(plan, wednesday, 3, model.DefaultPolicy())
	require.Len(t, tasks, 3)
	assert.True(t, tasks[0].IsDone)
	assert.Equal(t, model.PageRange{Start: 3, End: 4}, *tasks[1].NewPages)
	assert.Nil(t, Forecast(plan, wednesday, 0, model.DefaultPolicy()))
}
