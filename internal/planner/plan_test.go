package planner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

func validInput() PlanInput {
	return PlanInput{
		StartPage:   1,
		EndPage:     604,
		Strategy:    model.StrategyCapacity,
		PagesPerDay: 2,
		OffDays:     []int{5, 5},
	}
}

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan(validInput(), "owner-1", wednesday)
	require.NoError(t, err)

	_, err = uuid.Parse(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", plan.OwnerID)
	assert.Equal(t, 1, plan.CurrentPage)
	assert.Zero(t, plan.CompletedPages)
	assert.Equal(t, []int{5}, plan.OffDays)
	assert.Equal(t, model.MethodStandard, plan.Method)
	assert.Equal(t, "2026-10-14", calendar.Format(plan.StartDate))
	require.NoError(t, CheckInvariants(plan))
}

func TestNewPlanDeadline(t *testing.T) {
	in := validInput()
	in.Strategy = model.StrategyDeadline
	in.PagesPerDay = 0
	in.TargetDate = day(300)

	plan, err := NewPlan(in, "owner-1", wednesday)
	require.NoError(t, err)
	assert.Zero(t, plan.PagesPerDay)
	assert.Equal(t, calendar.Format(day(300)), calendar.Format(plan.TargetDate))
}

func TestNewPlanRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlanInput)
		want   string
	}{
		{name: "inverted scope", mutate: func(in *PlanInput) { in.StartPage, in.EndPage = 20, 10 }, want: "EndPage"},
		{name: "page zero", mutate: func(in *PlanInput) { in.StartPage = 0 }, want: "StartPage"},
		{name: "past last page", mutate: func(in *PlanInput) { in.EndPage = 605 }, want: "EndPage"},
		{name: "unknown strategy", mutate: func(in *PlanInput) { in.Strategy = "sprint" }, want: "Strategy"},
		{name: "zero rate", mutate: func(in *PlanInput) { in.PagesPerDay = 0 }, want: "positive"},
		{name: "odd rate", mutate: func(in *PlanInput) { in.PagesPerDay = 1.3 }, want: "multiple of 0.5"},
		{name: "all days off", mutate: func(in *PlanInput) { in.OffDays = []int{0, 1, 2, 3, 4, 5, 6} }, want: "every weekday"},
		{name: "bad weekday", mutate: func(in *PlanInput) { in.OffDays = []int{7} }, want: "OffDays"},
		{name: "review without ratio", mutate: func(in *PlanInput) { in.ReviewEnabled = true }, want: "review ratio"},
		{name: "missing deadline", mutate: func(in *PlanInput) { in.Strategy = model.StrategyDeadline }, want: "deadline is required"},
		{name: "deadline before start", mutate: func(in *PlanInput) {
			in.Strategy = model.StrategyDeadline
			in.TargetDate = day(-3)
		}, want: "before the start"},
		{name: "prayer without city", mutate: func(in *PlanInput) { in.Method = model.MethodPrayer }, want: "city"},
		{name: "unknown method", mutate: func(in *PlanInput) { in.Method = "speed" }, want: "Method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewPlan(in, "owner-1", wednesday)
			require.ErrorIs(t, err, ErrInvalidPlan)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewPlanRequiresOwner(t *testing.T) {
	_, err := NewPlan(validInput(), " ", wednesday)
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCheckTransition(t *testing.T) {
	plan, err := NewPlan(validInput(), "owner-1", wednesday)
	require.NoError(t, err)

	moved := plan
	moved.EndPage = 300
	require.ErrorIs(t, CheckTransition(plan, moved), ErrInvalidPlan)

	ahead := plan
	ahead.CurrentPage, ahead.CompletedPages = 5, 4
	require.NoError(t, CheckTransition(plan, ahead))
	require.ErrorIs(t, CheckTransition(ahead, plan), ErrInvalidPlan)

	broken := ahead
	broken.CompletedPages = 2
	require.ErrorIs(t, CheckInvariants(broken), ErrInvalidPlan)
}
